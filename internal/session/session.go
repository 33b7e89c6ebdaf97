// Package session implements the gateway's session store: two interchangeable
// persistence areas holding the upstream bearer token and the denormalized
// user record. The durable area survives restarts ("remember me"); the
// session-scoped area does not. A record lives in exactly one area.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/payland/gateway/internal/model"
)

// ErrNoSession is returned when neither area holds a record for the id.
// Callers must treat it as "unauthenticated" and redirect to login.
var ErrNoSession = errors.New("no session")

const (
	// DurableTTL bounds "remember me" sessions.
	DurableTTL = 30 * 24 * time.Hour
	// ScopedTTL bounds session-scoped records server-side; the browser-session
	// cookie is the primary lifetime boundary.
	ScopedTTL = 24 * time.Hour
)

// Area is one persistence area. Implementations: in-memory (session-scoped and
// the durable fallback) and Postgres (durable when DATABASE_URL is set).
type Area interface {
	Put(ctx context.Context, id string, rec model.SessionRecord) error
	Get(ctx context.Context, id string) (model.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// Manager routes session operations to the right area.
type Manager struct {
	durable Area
	scoped  Area
}

// NewManager creates a session manager over a durable and a session-scoped area.
func NewManager(durable, scoped Area) *Manager {
	return &Manager{durable: durable, scoped: scoped}
}

// Persist writes the record into the durable area when remember is true, else
// into the session-scoped area. Never both.
func (m *Manager) Persist(ctx context.Context, id string, rec model.SessionRecord, remember bool) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	area := m.scoped
	if remember {
		area = m.durable
	}
	if err := area.Put(ctx, id, rec); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load reads the record, durable area first, falling back to the
// session-scoped area. Returns ErrNoSession when neither holds it.
func (m *Manager) Load(ctx context.Context, id string) (model.SessionRecord, error) {
	rec, err := m.durable.Get(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNoSession) {
		return model.SessionRecord{}, fmt.Errorf("load durable session: %w", err)
	}
	rec, err = m.scoped.Get(ctx, id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNoSession) {
		return model.SessionRecord{}, fmt.Errorf("load scoped session: %w", err)
	}
	return model.SessionRecord{}, ErrNoSession
}

// Update rewrites the record in whichever area holds it.
func (m *Manager) Update(ctx context.Context, id string, fn func(*model.SessionRecord)) error {
	for _, area := range []Area{m.durable, m.scoped} {
		rec, err := area.Get(ctx, id)
		if errors.Is(err, ErrNoSession) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		fn(&rec)
		return area.Put(ctx, id, rec)
	}
	return ErrNoSession
}

// Clear removes the record from both areas unconditionally; covers the case
// where the caller does not know which area was used at login.
func (m *Manager) Clear(ctx context.Context, id string) error {
	derr := m.durable.Delete(ctx, id)
	serr := m.scoped.Delete(ctx, id)
	if derr != nil {
		return fmt.Errorf("clear durable session: %w", derr)
	}
	if serr != nil {
		return fmt.Errorf("clear scoped session: %w", serr)
	}
	return nil
}
