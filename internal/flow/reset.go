package flow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Password-reset steps. The flow only ever moves forward; Done is terminal.
type ResetStep int

const (
	ResetEnterEmail ResetStep = iota + 1
	ResetEnterOTP
	ResetNewPassword
	ResetDone
)

const (
	msgEmailRequired    = "Email is required"
	msgEmailNotFound    = "Email not found. Please check and try again."
	msgResetOTPSent     = "OTP sent to your registered email!"
	msgOTPVerified      = "OTP verified successfully!"
	msgResetMismatch    = "Passwords do not match!"
	msgPasswordReset    = "Password reset successfully!"
	msgPasswordRequired = "New password and confirmation are required"
)

// resetCloseDelay is how long the browser keeps the success message visible
// before closing the flow and resetting its fields.
const resetCloseDelay = 2 * time.Second

type resetFlow struct {
	id        string
	createdAt time.Time
	busy      atomic.Bool

	mu    sync.Mutex
	step  ResetStep
	email string
	otp   string
}

// ResetState is the snapshot handlers render back to the browser.
type ResetState struct {
	ID         string        `json:"flowId"`
	Step       ResetStep     `json:"step"`
	Email      string        `json:"email,omitempty"`
	OTP        string        `json:"otp,omitempty"`
	Message    string        `json:"message,omitempty"`
	CloseDelay time.Duration `json:"-"`
}

func (f *resetFlow) snapshot() ResetState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ResetState{
		ID:    f.id,
		Step:  f.step,
		Email: f.email,
		OTP:   f.otp,
	}
}

// StartReset creates a flow in the EnterEmail step.
func (m *Manager) StartReset() ResetState {
	f := &resetFlow{
		id:        newFlowID(),
		createdAt: time.Now(),
		step:      ResetEnterEmail,
	}
	m.mu.Lock()
	m.resets[f.id] = f
	m.mu.Unlock()
	return f.snapshot()
}

func (m *Manager) reset(id string) (*resetFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.resets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// SubmitResetEmail first verifies the email belongs to a known account; an
// unknown address stays in EnterEmail with a "not found" error and no OTP is
// sent. A known address gets an OTP and the flow advances.
func (m *Manager) SubmitResetEmail(ctx context.Context, id, email string) (ResetState, error) {
	f, err := m.reset(id)
	if err != nil {
		return ResetState{}, err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return ResetState{}, ErrBusy
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	if f.step != ResetEnterEmail {
		f.mu.Unlock()
		return ResetState{}, ErrWrongStep
	}
	f.email = email
	f.mu.Unlock()

	if email == "" {
		return f.snapshot(), validationErr(msgEmailRequired)
	}

	exists, err := m.backend.CheckEmail(ctx, email)
	if err != nil {
		return f.snapshot(), err
	}
	if !exists {
		// The existence check gates the OTP send: unregistered addresses
		// never receive one.
		return f.snapshot(), validationErr(msgEmailNotFound)
	}

	if err := m.backend.SendResetOTP(ctx, email); err != nil {
		return f.snapshot(), err
	}

	f.mu.Lock()
	f.step = ResetEnterOTP
	f.otp = ""
	f.mu.Unlock()

	st := f.snapshot()
	st.Message = msgResetOTPSent
	return st, nil
}

// VerifyReset submits email+otp for verification. On failure the flow stays in
// EnterOTP with the OTP value retained for correction.
func (m *Manager) VerifyReset(ctx context.Context, id, otp string) (ResetState, error) {
	f, err := m.reset(id)
	if err != nil {
		return ResetState{}, err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return ResetState{}, ErrBusy
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	if f.step != ResetEnterOTP {
		f.mu.Unlock()
		return ResetState{}, ErrWrongStep
	}
	f.otp = otp
	email := f.email
	f.mu.Unlock()

	if len(otp) != otpLength {
		return f.snapshot(), validationErr(msgOTPLength)
	}

	if err := m.backend.VerifyResetOTP(ctx, email, otp); err != nil {
		return f.snapshot(), err
	}

	f.mu.Lock()
	f.step = ResetNewPassword
	f.mu.Unlock()

	st := f.snapshot()
	st.Message = msgOTPVerified
	return st, nil
}

// CompleteReset requires matching passwords before any network call; a
// mismatch reports an error and performs no request. Success ends the flow
// and resets all fields; failure retains state for retry.
func (m *Manager) CompleteReset(ctx context.Context, id, newPassword, confirmPassword string) (ResetState, error) {
	f, err := m.reset(id)
	if err != nil {
		return ResetState{}, err
	}
	if !f.busy.CompareAndSwap(false, true) {
		return ResetState{}, ErrBusy
	}
	defer f.busy.Store(false)

	f.mu.Lock()
	if f.step != ResetNewPassword {
		f.mu.Unlock()
		return ResetState{}, ErrWrongStep
	}
	email := f.email
	otp := f.otp
	f.mu.Unlock()

	if newPassword != confirmPassword {
		return f.snapshot(), validationErr(msgResetMismatch)
	}
	if newPassword == "" {
		return f.snapshot(), validationErr(msgPasswordRequired)
	}

	if err := m.backend.ResetPassword(ctx, email, otp, newPassword); err != nil {
		return f.snapshot(), err
	}

	f.mu.Lock()
	f.step = ResetDone
	f.mu.Unlock()
	st := f.snapshot()

	m.mu.Lock()
	delete(m.resets, id)
	m.mu.Unlock()

	st.Message = msgPasswordReset
	st.CloseDelay = resetCloseDelay
	return st, nil
}

// CancelReset drops the flow; the browser closed the dialog.
func (m *Manager) CancelReset(id string) {
	m.mu.Lock()
	delete(m.resets, id)
	m.mu.Unlock()
}
