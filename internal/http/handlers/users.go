package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/middleware"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/session"
	"github.com/payland/gateway/internal/view"
)

// UsersHandler serves the users screen and the profile page.
type UsersHandler struct {
	users    *view.UserList
	backend  *backend.Client
	sessions *session.Manager
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users *view.UserList, client *backend.Client, sessions *session.Manager) *UsersHandler {
	return &UsersHandler{users: users, backend: client, sessions: sessions}
}

// HandleList handles GET /users. Same refetch-vs-filter split as contacts.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" || !h.users.Loaded() {
		if err := h.users.Load(r.Context(), token); err != nil {
			log.Printf("load users: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"users": h.users.Filter(q)})
}

// HandleGet handles GET /users/{id}: a fresh upstream read, used by the
// profile page and the navbar identity refresh.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.backend.GetUser(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleCreate handles POST /users.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var draft model.UserDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	if draft.Username == "" || draft.Email == "" || draft.Password == "" {
		respondWithError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	row, err := h.users.Create(r.Context(), token, draft)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"user": row})
}

// HandleUpdate handles PUT /users/{id}. Editing your own account also
// refreshes the denormalized user on the session record, in whichever area
// holds it.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.GetSession(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var draft model.UserDraft
	if !decodeBody(w, r, &draft) {
		return
	}

	id := chi.URLParam(r, "id")
	row, err := h.users.Update(r.Context(), rec.Token, id, draft)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if id == rec.User.ID {
		sessionID, _ := middleware.GetSessionID(r.Context())
		err := h.sessions.Update(r.Context(), sessionID, func(s *model.SessionRecord) {
			s.User.Username = row.Username
			s.User.Email = row.Email
			s.User.Phone = model.FlexString(row.Phone)
			s.User.UserType = row.UserType
		})
		if err != nil {
			log.Printf("refresh session user %s: %v", sessionID, err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": row})
}

// HandleDelete handles DELETE /users/{id}.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.users.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
