package notify

import (
	"context"
	"strings"
	"sync"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// maxResultsPerGroup caps each result group in the navbar dropdown.
const maxResultsPerGroup = 5

// ClientHit is a contact match in the global search dropdown.
type ClientHit struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// UserHit is a user match in the global search dropdown.
type UserHit struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UserType string `json:"userType"`
}

// SearchResults groups matches the way the dropdown renders them.
type SearchResults struct {
	Clients []ClientHit `json:"clients"`
	Users   []UserHit   `json:"users"`
}

// SearchIndex is the global-search data set: full contacts and users
// collections fetched once, then filtered per keystroke entirely in memory.
type SearchIndex struct {
	backend *backend.Client

	mu       sync.RWMutex
	contacts []model.Contact
	users    []model.User
	loaded   bool
}

// NewSearchIndex creates an empty search index.
func NewSearchIndex(client *backend.Client) *SearchIndex {
	return &SearchIndex{backend: client}
}

// Loaded reports whether the one-time fetch has happened.
func (s *SearchIndex) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Load fetches both collections. Called once after login; a failure leaves
// the index empty and loadable again.
func (s *SearchIndex) Load(ctx context.Context, token string) error {
	contacts, err := s.backend.ListContacts(ctx, token)
	if err != nil {
		return err
	}
	users, err := s.backend.ListUsers(ctx, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.contacts = contacts
	s.users = users
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Search filters both collections by case-insensitive substring over
// name/email/phone, capped at 5 results per group.
func (s *SearchIndex) Search(q string) SearchResults {
	res := SearchResults{Clients: []ClientHit{}, Users: []UserHit{}}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return res
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.contacts {
		if len(res.Clients) >= maxResultsPerGroup {
			break
		}
		name := strings.ToLower(c.FirstName + " " + c.LastName)
		if strings.Contains(name, q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(strings.ToLower(string(c.Phone)), q) {
			res.Clients = append(res.Clients, ClientHit{
				ID:        c.ID,
				FirstName: model.OrPlaceholder(c.FirstName),
				LastName:  model.OrPlaceholder(c.LastName),
				Email:     model.OrPlaceholder(c.Email),
				Phone:     model.OrPlaceholder(string(c.Phone)),
			})
		}
	}

	for _, u := range s.users {
		if len(res.Users) >= maxResultsPerGroup {
			break
		}
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(string(u.Phone)), q) {
			res.Users = append(res.Users, UserHit{
				ID:       u.ID,
				Username: model.OrPlaceholder(u.Username),
				Email:    model.OrPlaceholder(u.Email),
				Phone:    model.OrPlaceholder(string(u.Phone)),
				UserType: model.OrPlaceholder(u.UserType),
			})
		}
	}

	return res
}
