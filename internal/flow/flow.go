// Package flow drives the two multi-step account flows, signup with email
// verification and OTP-based password reset, as explicit state machines over
// step numbers. Flows are held server-side, keyed by an opaque flow ID the
// browser carries between steps.
package flow

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/payland/gateway/internal/backend"
)

var (
	// ErrBusy rejects a submission while the same step's network call is still
	// in flight; the triggering control is disabled client-side, this is the
	// server-side guarantee.
	ErrBusy = errors.New("submission already in progress")
	// ErrNotFound means the flow ID is unknown or the flow expired.
	ErrNotFound = errors.New("flow not found")
	// ErrWrongStep rejects an operation that is not valid in the current step.
	ErrWrongStep = errors.New("operation not valid in current step")
)

// ValidationError is a client-side style validation failure: reported inline,
// no network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }

// otpLength is the exact code length the verify controls accept.
const otpLength = 6

// flowTTL bounds how long an abandoned flow is kept.
const flowTTL = 15 * time.Minute

// Manager owns all in-flight flows.
type Manager struct {
	backend *backend.Client

	mu      sync.Mutex
	signups map[string]*signupFlow
	resets  map[string]*resetFlow
}

// NewManager creates a flow manager over the backoffice client.
func NewManager(client *backend.Client) *Manager {
	m := &Manager{
		backend: client,
		signups: make(map[string]*signupFlow),
		resets:  make(map[string]*resetFlow),
	}
	go m.cleanup()
	return m
}

func newFlowID() string { return uuid.NewString() }

// cleanup periodically drops abandoned flows.
func (m *Manager) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-flowTTL)
		m.mu.Lock()
		for id, f := range m.signups {
			if f.createdAt.Before(cutoff) {
				delete(m.signups, id)
			}
		}
		for id, f := range m.resets {
			if f.createdAt.Before(cutoff) {
				delete(m.resets, id)
			}
		}
		m.mu.Unlock()
	}
}
