package flow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// Signup steps. Details collects the account draft; AwaitingOTP holds it while
// the user proves control of the email; Created is terminal.
type SignupStep int

const (
	SignupDetails SignupStep = iota + 1
	SignupAwaitingOTP
	SignupCreated
)

const (
	msgPasswordsMismatch = "Passwords do not match"
	msgAllFieldsRequired = "All fields are required"
	msgSignupOTPSent     = "OTP sent to your email!"
	msgAccountCreated    = "Account created successfully!"
	msgOTPLength         = "Enter the 6-digit OTP"
)

// signupRedirectDelay is how long the browser waits before navigating to the
// login entry point after account creation.
const signupRedirectDelay = 1500 * time.Millisecond

type signupFlow struct {
	id        string
	createdAt time.Time
	busy      atomic.Bool

	mu    sync.Mutex
	step  SignupStep
	draft model.SignupDraft
	otp   string
}

// SignupState is the snapshot handlers render back to the browser.
type SignupState struct {
	ID            string        `json:"flowId"`
	Step          SignupStep    `json:"step"`
	Email         string        `json:"email,omitempty"`
	OTP           string        `json:"otp,omitempty"`
	Message       string        `json:"message,omitempty"`
	RedirectDelay time.Duration `json:"-"`
}

func (f *signupFlow) snapshot() SignupState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SignupState{
		ID:    f.id,
		Step:  f.step,
		Email: f.draft.Email,
		OTP:   f.otp,
	}
}

// StartSignup creates a flow in the Details step.
func (m *Manager) StartSignup() SignupState {
	f := &signupFlow{
		id:        newFlowID(),
		createdAt: time.Now(),
		step:      SignupDetails,
	}
	m.mu.Lock()
	m.signups[f.id] = f
	m.mu.Unlock()
	return f.snapshot()
}

func (m *Manager) signup(id string) (*signupFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.signups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// SubmitSignupDetails validates the draft and, when valid, requests a signup
// OTP for the draft's email. Validation failures and upstream rejections leave
// the flow in Details; validation failures make no network call at all.
func (m *Manager) SubmitSignupDetails(ctx context.Context, id string, draft model.SignupDraft) (SignupState, error) {
	f, err := m.signup(id)
	if err != nil {
		return SignupState{}, err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return SignupState{}, ErrBusy
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	if f.step != SignupDetails {
		f.mu.Unlock()
		return SignupState{}, ErrWrongStep
	}
	// Retain the draft so a rejected submission keeps the form values.
	f.draft = draft
	f.mu.Unlock()

	if draft.Password != draft.ConfirmPassword {
		return f.snapshot(), validationErr(msgPasswordsMismatch)
	}
	if draft.Name == "" || draft.Email == "" || draft.Phone == "" || draft.Password == "" {
		return f.snapshot(), validationErr(msgAllFieldsRequired)
	}

	if err := m.backend.SendSignupOTP(ctx, draft.Email); err != nil {
		return f.snapshot(), err
	}

	f.mu.Lock()
	f.step = SignupAwaitingOTP
	f.otp = ""
	f.mu.Unlock()

	st := f.snapshot()
	st.Message = msgSignupOTPSent
	return st, nil
}

// VerifySignup submits the 6-character code together with the original draft.
// On upstream rejection the flow stays in AwaitingOTP with the OTP and draft
// retained for retry. On acceptance the account exists and the flow ends.
func (m *Manager) VerifySignup(ctx context.Context, id, otp string) (SignupState, error) {
	f, err := m.signup(id)
	if err != nil {
		return SignupState{}, err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return SignupState{}, ErrBusy
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	if f.step != SignupAwaitingOTP {
		f.mu.Unlock()
		return SignupState{}, ErrWrongStep
	}
	f.otp = otp
	draft := f.draft
	f.mu.Unlock()

	if len(otp) != otpLength {
		return f.snapshot(), validationErr(msgOTPLength)
	}

	_, err = m.backend.Signup(ctx, backend.SignupRequest{
		Username: draft.Name,
		Email:    draft.Email,
		Phone:    draft.Phone,
		Password: draft.Password,
		OTP:      otp,
		UserType: draft.UserType,
	})
	if err != nil {
		return f.snapshot(), err
	}

	f.mu.Lock()
	f.step = SignupCreated
	f.mu.Unlock()
	st := f.snapshot()

	m.mu.Lock()
	delete(m.signups, id)
	m.mu.Unlock()

	st.Message = msgAccountCreated
	st.RedirectDelay = signupRedirectDelay
	return st, nil
}

// SignupBack is the explicit user-triggered back action: it clears the entire
// draft and returns the flow to the Details step.
func (m *Manager) SignupBack(id string) (SignupState, error) {
	f, err := m.signup(id)
	if err != nil {
		return SignupState{}, err
	}

	f.mu.Lock()
	f.step = SignupDetails
	f.draft = model.SignupDraft{}
	f.otp = ""
	f.mu.Unlock()
	return f.snapshot(), nil
}
