// Package notify backs the navbar: the periodic new-contacts notification
// poll and the client-side global search over contacts and users.
package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// notificationWindow is the trailing window a contact must fall in to count
// as "new". It is recomputed relative to "now" at fetch time, not
// continuously, so an item can linger slightly past the boundary until the
// next poll.
const notificationWindow = 24 * time.Hour

// Notification is one new-contact entry for the navbar badge list.
type Notification struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Poller refreshes the new-contacts snapshot on a fixed interval. It needs an
// upstream token; the login handler hands it the most recent one, mirroring
// the browser tab whose user is signed in. Without a token a tick is skipped.
type Poller struct {
	backend  *backend.Client
	interval time.Duration

	mu     sync.RWMutex
	token  string
	recent []Notification

	stop chan struct{}
	once sync.Once
}

// NewPoller creates a poller; Start launches the background loop.
func NewPoller(client *backend.Client, interval time.Duration) *Poller {
	return &Poller{
		backend:  client,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// SetToken installs the upstream token used for background fetches and
// triggers an immediate refresh.
func (p *Poller) SetToken(token string) {
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	if token != "" {
		go p.Refresh(context.Background())
	}
}

// ClearToken drops the token; subsequent ticks are skipped.
func (p *Poller) ClearToken() {
	p.mu.Lock()
	p.token = ""
	p.recent = nil
	p.mu.Unlock()
}

// Start runs the poll loop until Stop is called.
func (p *Poller) Start() {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Refresh(context.Background())
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop terminates the poll loop.
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.stop) })
}

// Refresh re-fetches the contact collection and recomputes the 24-hour
// window against the current clock. Fetch failures keep the last snapshot.
func (p *Poller) Refresh(ctx context.Context) {
	p.mu.RLock()
	token := p.token
	p.mu.RUnlock()
	if token == "" {
		return
	}

	contacts, err := p.backend.RecentContacts(ctx, token)
	if err != nil {
		log.Printf("notification poll: %v", err)
		return
	}

	cutoff := time.Now().Add(-notificationWindow)
	recent := make([]Notification, 0)
	for _, c := range contacts {
		if c.CreatedAt.After(cutoff) {
			recent = append(recent, Notification{
				ID:        c.ID,
				FirstName: model.OrPlaceholder(c.FirstName),
				LastName:  model.OrPlaceholder(c.LastName),
				Email:     model.OrPlaceholder(c.Email),
				CreatedAt: c.CreatedAt,
			})
		}
	}

	p.mu.Lock()
	p.recent = recent
	p.mu.Unlock()
}

// Snapshot returns the badge count and the current notification list.
func (p *Poller) Snapshot() (int, []Notification) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Notification, len(p.recent))
	copy(out, p.recent)
	return len(out), out
}
