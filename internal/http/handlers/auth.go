package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/payland/gateway/internal/auth"
	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/flow"
	"github.com/payland/gateway/internal/middleware"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/notify"
	"github.com/payland/gateway/internal/session"
)

// loginRedirectDelay gives the browser's credential manager time to observe
// the submitted form before the page navigates away.
const loginRedirectDelay = 1 * time.Second

// dashboardPath is the authenticated landing page.
const dashboardPath = "/dashboard/admin"

// AuthHandler handles login, logout and the two OTP flows.
type AuthHandler struct {
	backend  *backend.Client
	sessions *session.Manager
	cookies  *auth.CookieService
	flows    *flow.Manager
	poller   *notify.Poller
	search   *notify.SearchIndex
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(
	client *backend.Client,
	sessions *session.Manager,
	cookies *auth.CookieService,
	flows *flow.Manager,
	poller *notify.Poller,
	search *notify.SearchIndex,
) *AuthHandler {
	return &AuthHandler{
		backend:  client,
		sessions: sessions,
		cookies:  cookies,
		flows:    flows,
		poller:   poller,
		search:   search,
	}
}

// loginRequest is the request body for POST /auth/login
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// loginResponse is the JSON response for a successful login
type loginResponse struct {
	User            model.User `json:"user"`
	Redirect        string     `json:"redirect"`
	RedirectDelayMS int64      `json:"redirectDelayMs"`
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	res, err := h.backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	sessionID := uuid.NewString()
	rec := model.SessionRecord{
		Token:     res.Token,
		User:      res.User,
		CreatedAt: time.Now(),
	}
	if err := h.sessions.Persist(r.Context(), sessionID, rec, req.Remember); err != nil {
		log.Printf("persist session for %s: %v", req.Username, err)
		respondWithError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	ttl := auth.SessionTTL
	maxAge := 0 // browser-session cookie
	if req.Remember {
		ttl = auth.RememberTTL
		maxAge = int(auth.RememberTTL.Seconds())
	}
	signed, err := h.cookies.Sign(sessionID, ttl)
	if err != nil {
		log.Printf("sign session cookie: %v", err)
		respondWithError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	// Hand the fresh token to the navbar background fetchers.
	h.poller.SetToken(res.Token)
	if !h.search.Loaded() {
		go func(token string) {
			if err := h.search.Load(context.Background(), token); err != nil {
				log.Printf("search index load: %v", err)
			}
		}(res.Token)
	}

	respondJSON(w, http.StatusOK, loginResponse{
		User:            res.User,
		Redirect:        dashboardPath,
		RedirectDelayMS: loginRedirectDelay.Milliseconds(),
	})
}

// HandleLogout handles POST /auth/logout (protected).
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.sessions.Clear(r.Context(), sessionID); err != nil {
		log.Printf("clear session %s: %v", sessionID, err)
	}
	h.poller.ClearToken()

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe handles GET /me (protected). Returns the session's user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.GetSession(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user":             rec.User,
		"sidebarCollapsed": rec.SidebarCollapsed,
	})
}

// sidebarRequest is the request body for POST /shell/sidebar
type sidebarRequest struct {
	Collapsed bool `json:"collapsed"`
}

// HandleSidebar handles POST /shell/sidebar (protected): persists the sidebar
// collapse state on the session record.
func (h *AuthHandler) HandleSidebar(w http.ResponseWriter, r *http.Request) {
	var req sidebarRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	err := h.sessions.Update(r.Context(), sessionID, func(rec *model.SessionRecord) {
		rec.SidebarCollapsed = req.Collapsed
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to update session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"collapsed": req.Collapsed})
}

// signupStartRequest is the request body for POST /auth/signup/start
type signupStartRequest struct {
	FlowID string            `json:"flowId"`
	Draft  model.SignupDraft `json:"draft"`
}

// signupStateResponse serializes a signup flow snapshot.
type signupStateResponse struct {
	FlowID          string `json:"flowId"`
	Step            int    `json:"step"`
	Email           string `json:"email,omitempty"`
	OTP             string `json:"otp,omitempty"`
	Message         string `json:"message,omitempty"`
	Redirect        string `json:"redirect,omitempty"`
	RedirectDelayMS int64  `json:"redirectDelayMs,omitempty"`
}

func signupResponse(st flow.SignupState) signupStateResponse {
	res := signupStateResponse{
		FlowID:  st.ID,
		Step:    int(st.Step),
		Email:   st.Email,
		OTP:     st.OTP,
		Message: st.Message,
	}
	if st.RedirectDelay > 0 {
		res.Redirect = "/auth/login"
		res.RedirectDelayMS = st.RedirectDelay.Milliseconds()
	}
	return res
}

// HandleSignupStart handles POST /auth/signup/start: submits the details form.
// Without a flowId a fresh flow is created; with one, the same flow retries.
func (h *AuthHandler) HandleSignupStart(w http.ResponseWriter, r *http.Request) {
	var req signupStartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.FlowID == "" {
		req.FlowID = h.flows.StartSignup().ID
	}

	st, err := h.flows.SubmitSignupDetails(r.Context(), req.FlowID, req.Draft)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signupResponse(st))
}

// signupVerifyRequest is the request body for POST /auth/signup/verify
type signupVerifyRequest struct {
	FlowID string `json:"flowId"`
	OTP    string `json:"otp"`
}

// HandleSignupVerify handles POST /auth/signup/verify.
func (h *AuthHandler) HandleSignupVerify(w http.ResponseWriter, r *http.Request) {
	var req signupVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.flows.VerifySignup(r.Context(), req.FlowID, strings.TrimSpace(req.OTP))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signupResponse(st))
}

// flowIDRequest is the request body for flow back/cancel actions.
type flowIDRequest struct {
	FlowID string `json:"flowId"`
}

// HandleSignupBack handles POST /auth/signup/back: clears the draft and
// returns to the details step.
func (h *AuthHandler) HandleSignupBack(w http.ResponseWriter, r *http.Request) {
	var req flowIDRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.flows.SignupBack(req.FlowID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, signupResponse(st))
}

// resetStateResponse serializes a reset flow snapshot.
type resetStateResponse struct {
	FlowID       string `json:"flowId"`
	Step         int    `json:"step"`
	Email        string `json:"email,omitempty"`
	OTP          string `json:"otp,omitempty"`
	Message      string `json:"message,omitempty"`
	CloseDelayMS int64  `json:"closeDelayMs,omitempty"`
}

func resetResponse(st flow.ResetState) resetStateResponse {
	return resetStateResponse{
		FlowID:       st.ID,
		Step:         int(st.Step),
		Email:        st.Email,
		OTP:          st.OTP,
		Message:      st.Message,
		CloseDelayMS: st.CloseDelay.Milliseconds(),
	}
}

// resetStartRequest is the request body for POST /auth/reset/start
type resetStartRequest struct {
	FlowID string `json:"flowId"`
	Email  string `json:"email"`
}

// HandleResetStart handles POST /auth/reset/start: checks the email exists,
// then requests an OTP.
func (h *AuthHandler) HandleResetStart(w http.ResponseWriter, r *http.Request) {
	var req resetStartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.FlowID == "" {
		req.FlowID = h.flows.StartReset().ID
	}

	st, err := h.flows.SubmitResetEmail(r.Context(), req.FlowID, strings.TrimSpace(req.Email))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resetResponse(st))
}

// resetVerifyRequest is the request body for POST /auth/reset/verify
type resetVerifyRequest struct {
	FlowID string `json:"flowId"`
	OTP    string `json:"otp"`
}

// HandleResetVerify handles POST /auth/reset/verify.
func (h *AuthHandler) HandleResetVerify(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.flows.VerifyReset(r.Context(), req.FlowID, strings.TrimSpace(req.OTP))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resetResponse(st))
}

// resetCompleteRequest is the request body for POST /auth/reset/complete
type resetCompleteRequest struct {
	FlowID          string `json:"flowId"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleResetComplete handles POST /auth/reset/complete.
func (h *AuthHandler) HandleResetComplete(w http.ResponseWriter, r *http.Request) {
	var req resetCompleteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.flows.CompleteReset(r.Context(), req.FlowID, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resetResponse(st))
}
