package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/payland/gateway/internal/model"
)

// Client issues requests against the backoffice REST API. A bearer token is
// attached when the caller supplies one; unauthenticated calls omit the header.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a backoffice API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// do sends one JSON request and decodes the response into out (if non-nil).
// Non-2xx responses come back as *APIError; transport failures as ErrUnexpected.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("upstream %s %s: %v", method, path, err)
		return ErrUnexpected
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("upstream %s %s: read body: %v", method, path, err)
		return ErrUnexpected
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeError(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// LoginResult is the upstream answer to a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login exchanges credentials for a bearer token and the user record.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/user/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &res)
	if err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

// CheckEmail reports whether an account exists for the email. The reset flow
// calls this before requesting an OTP so unregistered addresses never get one.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var res struct {
		Exists bool `json:"exists"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/check-email", "", map[string]string{"email": email}, &res); err != nil {
		return false, err
	}
	return res.Exists, nil
}

// SendResetOTP asks the upstream to email a password-reset OTP.
func (c *Client) SendResetOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/user/send-reset-otp", "", map[string]string{"email": email}, nil)
}

// VerifyResetOTP checks a password-reset OTP without consuming it.
func (c *Client) VerifyResetOTP(ctx context.Context, email, otp string) error {
	return c.do(ctx, http.MethodPost, "/user/verify-reset-otp", "", map[string]string{
		"email": email,
		"otp":   otp,
	}, nil)
}

// ResetPassword completes the reset flow with email, OTP and the new password.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/user/reset-password", "", map[string]string{
		"email":       email,
		"otp":         otp,
		"newPassword": newPassword,
	}, nil)
}

// SendSignupOTP asks the upstream to email a signup verification OTP.
func (c *Client) SendSignupOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/user/send-signup-otp", "", map[string]string{"email": email}, nil)
}

// SignupRequest is the verified account-creation payload.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
	UserType string `json:"userType"`
}

// Signup creates an account. The admin users screen reuses this without an OTP.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (model.User, error) {
	var res struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/signup", "", req, &res); err != nil {
		return model.User{}, err
	}
	return res.User, nil
}

// ListUsers fetches the full user collection.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.User, error) {
	var res struct {
		Users []model.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, &res); err != nil {
		return nil, err
	}
	return res.Users, nil
}

// GetUser fetches a single user by id.
func (c *Client) GetUser(ctx context.Context, token, id string) (model.User, error) {
	var res struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/"+id, token, nil, &res); err != nil {
		return model.User{}, err
	}
	return res.User, nil
}

// UpdateUser puts a partial user patch and returns the upstream echo.
func (c *Client) UpdateUser(ctx context.Context, token, id string, patch any) (model.User, error) {
	var res struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/user/"+id, token, patch, &res); err != nil {
		return model.User{}, err
	}
	return res.User, nil
}

// DeleteUser removes a user by id.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/"+id, token, nil, nil)
}

// ListContacts fetches the full contact collection.
func (c *Client) ListContacts(ctx context.Context, token string) ([]model.Contact, error) {
	var res struct {
		Contacts []model.Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contact", token, nil, &res); err != nil {
		return nil, err
	}
	return res.Contacts, nil
}

// RecentContacts fetches the collection the notification poller windows over.
func (c *Client) RecentContacts(ctx context.Context, token string) ([]model.Contact, error) {
	var res struct {
		Contacts []model.Contact `json:"contacts"`
	}
	if err := c.do(ctx, http.MethodGet, "/contact/recent-contacts", token, nil, &res); err != nil {
		return nil, err
	}
	return res.Contacts, nil
}

// CreateContact posts a contact draft and returns the stored record.
func (c *Client) CreateContact(ctx context.Context, token string, draft model.ContactDraft) (model.Contact, error) {
	var res struct {
		Contact model.Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodPost, "/contact", token, draft, &res); err != nil {
		return model.Contact{}, err
	}
	return res.Contact, nil
}

// UpdateContact puts a partial contact patch and returns the upstream echo.
func (c *Client) UpdateContact(ctx context.Context, token, id string, patch any) (model.Contact, error) {
	var res struct {
		Contact model.Contact `json:"contact"`
	}
	if err := c.do(ctx, http.MethodPut, "/contact/"+id, token, patch, &res); err != nil {
		return model.Contact{}, err
	}
	return res.Contact, nil
}

// DeleteContact removes a contact by id.
func (c *Client) DeleteContact(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/contact/"+id, token, nil, nil)
}
