package view

import (
	"context"
	"strings"
	"sync"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// UserRow is a user account as the table renders it.
type UserRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UserType string `json:"userType"`
}

func mapUser(u model.User) UserRow {
	return UserRow{
		ID:       u.ID,
		Username: model.OrPlaceholder(u.Username),
		Email:    model.OrPlaceholder(u.Email),
		Phone:    model.OrPlaceholder(string(u.Phone)),
		UserType: model.OrPlaceholder(u.UserType),
	}
}

// UserList is the users screen's working set.
type UserList struct {
	backend *backend.Client

	mu     sync.RWMutex
	rows   []UserRow
	loaded bool
}

// NewUserList creates an empty users working set.
func NewUserList(client *backend.Client) *UserList {
	return &UserList{backend: client}
}

// Load fetches the full collection and replaces the working set.
func (l *UserList) Load(ctx context.Context, token string) error {
	users, err := l.backend.ListUsers(ctx, token)
	if err != nil {
		return err
	}
	rows := make([]UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, mapUser(u))
	}

	l.mu.Lock()
	l.rows = rows
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// Loaded reports whether the working set has been fetched at least once.
func (l *UserList) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Rows returns a copy of the working set.
func (l *UserList) Rows() []UserRow {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]UserRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Filter returns rows whose username or email contains q, case-insensitively.
func (l *UserList) Filter(q string) []UserRow {
	q = strings.ToLower(q)
	if q == "" {
		return l.Rows()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []UserRow
	for _, r := range l.rows {
		if strings.Contains(strings.ToLower(r.Username), q) ||
			strings.Contains(strings.ToLower(r.Email), q) {
			out = append(out, r)
		}
	}
	return out
}

// Get returns the row for id.
func (l *UserList) Get(id string) (UserRow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return UserRow{}, ErrRowNotFound
}

// Create registers the account through the signup endpoint (the admin screen
// creates users without OTP verification) and appends the stored record.
func (l *UserList) Create(ctx context.Context, token string, draft model.UserDraft) (UserRow, error) {
	created, err := l.backend.Signup(ctx, backend.SignupRequest{
		Username: draft.Username,
		Email:    draft.Email,
		Phone:    draft.Phone,
		Password: draft.Password,
		UserType: draft.UserType,
	})
	if err != nil {
		return UserRow{}, err
	}
	row := mapUser(created)

	l.mu.Lock()
	l.rows = append(l.rows, row)
	l.mu.Unlock()
	return row, nil
}

// Update puts the draft (password omitted when left empty) and merges the
// server echo over the submitted values.
func (l *UserList) Update(ctx context.Context, token, id string, draft model.UserDraft) (UserRow, error) {
	if _, err := l.Get(id); err != nil {
		return UserRow{}, err
	}

	patch := map[string]string{
		"username": draft.Username,
		"email":    draft.Email,
		"phone":    draft.Phone,
		"userType": draft.UserType,
	}
	if draft.Password != "" {
		patch["password"] = draft.Password
	}

	echoed, err := l.backend.UpdateUser(ctx, token, id, patch)
	if err != nil {
		return UserRow{}, err
	}

	row := UserRow{
		ID:       id,
		Username: or(echoed.Username, draft.Username),
		Email:    or(echoed.Email, draft.Email),
		Phone:    or(string(echoed.Phone), draft.Phone),
		UserType: or(echoed.UserType, draft.UserType),
	}

	l.mu.Lock()
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows[i] = row
			break
		}
	}
	l.mu.Unlock()
	return row, nil
}

// Delete removes the user remotely, then drops it from the working set only
// after server confirmation.
func (l *UserList) Delete(ctx context.Context, token, id string) error {
	if err := l.backend.DeleteUser(ctx, token, id); err != nil {
		return err
	}

	l.mu.Lock()
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			break
		}
	}
	l.mu.Unlock()
	return nil
}
