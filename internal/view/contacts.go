// Package view holds the dashboard's working collections: each screen's
// in-memory set of rows, mutated only by that screen's own CRUD operations.
// Rows are fully defaulted at mapping time so rendering is total.
package view

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// ErrRowNotFound means the id is not in the working set.
var ErrRowNotFound = errors.New("row not found")

// ContactRow is a contact as the table renders it: every field a non-empty
// string, createdAt already display-formatted, Saved a client-only pin.
type ContactRow struct {
	ID                   string `json:"id"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Country              string `json:"country"`
	Phone                string `json:"phone"`
	JobTitle             string `json:"jobTitle"`
	Website              string `json:"website"`
	BusinessType         string `json:"businessType"`
	CompanySize          string `json:"companySize"`
	CountryHQ            string `json:"countryHQ"`
	InterestedIn         string `json:"interestedIn"`
	GeographiesTargeting string `json:"geographiesTargeting"`
	HearAboutUs          string `json:"hearAboutUs"`
	CreatedAt            string `json:"createdAt"`
	Saved                bool   `json:"saved"`
}

func mapContact(c model.Contact) ContactRow {
	return ContactRow{
		ID:                   c.ID,
		FirstName:            model.OrPlaceholder(c.FirstName),
		LastName:             model.OrPlaceholder(c.LastName),
		Email:                model.OrPlaceholder(c.Email),
		Country:              model.OrPlaceholder(c.Country),
		Phone:                model.OrPlaceholder(string(c.Phone)),
		JobTitle:             model.OrPlaceholder(c.JobTitle),
		Website:              model.OrPlaceholder(c.Website),
		BusinessType:         model.OrPlaceholder(c.BusinessType),
		CompanySize:          model.OrPlaceholder(c.CompanySize),
		CountryHQ:            model.OrPlaceholder(c.CountryHQ),
		InterestedIn:         model.OrPlaceholder(c.InterestedIn),
		GeographiesTargeting: model.OrPlaceholder(c.GeographiesTargeting),
		HearAboutUs:          model.OrPlaceholder(c.HearAboutUs),
		CreatedAt:            model.DisplayDate(c.CreatedAt),
		Saved:                c.Saved,
	}
}

// or returns the first non-empty, non-placeholder value, else the placeholder.
// Update responses merge the server echo over the submitted patch this way.
func or(values ...string) string {
	for _, v := range values {
		if v != "" && v != model.Placeholder {
			return v
		}
	}
	return model.Placeholder
}

// ContactList is the contacts screen's working set.
type ContactList struct {
	backend *backend.Client

	mu     sync.RWMutex
	rows   []ContactRow
	loaded bool
}

// NewContactList creates an empty contacts working set.
func NewContactList(client *backend.Client) *ContactList {
	return &ContactList{backend: client}
}

// Load fetches the full collection and replaces the working set. There is no
// server-side pagination; filtering operates on this fetched set.
func (l *ContactList) Load(ctx context.Context, token string) error {
	contacts, err := l.backend.ListContacts(ctx, token)
	if err != nil {
		return err
	}
	rows := make([]ContactRow, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, mapContact(c))
	}

	l.mu.Lock()
	l.rows = rows
	l.loaded = true
	l.mu.Unlock()
	return nil
}

// Loaded reports whether the working set has been fetched at least once.
func (l *ContactList) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Rows returns a copy of the working set.
func (l *ContactList) Rows() []ContactRow {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ContactRow, len(l.rows))
	copy(out, l.rows)
	return out
}

// Filter returns rows whose name or email contains q, case-insensitively.
func (l *ContactList) Filter(q string) []ContactRow {
	q = strings.ToLower(q)
	if q == "" {
		return l.Rows()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []ContactRow
	for _, r := range l.rows {
		name := strings.ToLower(r.FirstName + " " + r.LastName)
		if strings.Contains(name, q) || strings.Contains(strings.ToLower(r.Email), q) {
			out = append(out, r)
		}
	}
	return out
}

// Get returns the row for id.
func (l *ContactList) Get(id string) (ContactRow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range l.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return ContactRow{}, ErrRowNotFound
}

// Create posts the draft. On success the server-returned, fully-defaulted
// record is appended; on failure the working set is unchanged and the error
// is surfaced.
func (l *ContactList) Create(ctx context.Context, token string, draft model.ContactDraft) (ContactRow, error) {
	created, err := l.backend.CreateContact(ctx, token, draft)
	if err != nil {
		return ContactRow{}, err
	}
	row := mapContact(created)
	row.Saved = false

	l.mu.Lock()
	l.rows = append(l.rows, row)
	l.mu.Unlock()
	return row, nil
}

// Update puts the draft and merges the server echo over it, preserving the
// client-only saved pin the server does not reliably echo back.
func (l *ContactList) Update(ctx context.Context, token, id string, draft model.ContactDraft) (ContactRow, error) {
	existing, err := l.Get(id)
	if err != nil {
		return ContactRow{}, err
	}

	echoed, err := l.backend.UpdateContact(ctx, token, id, draft)
	if err != nil {
		return ContactRow{}, err
	}

	row := ContactRow{
		ID:                   id,
		FirstName:            or(echoed.FirstName, draft.FirstName),
		LastName:             or(echoed.LastName, draft.LastName),
		Email:                or(echoed.Email, draft.Email),
		Country:              or(echoed.Country, draft.Country),
		Phone:                or(string(echoed.Phone), draft.Phone),
		JobTitle:             or(echoed.JobTitle, draft.JobTitle),
		Website:              or(echoed.Website, draft.Website),
		BusinessType:         or(echoed.BusinessType, draft.BusinessType),
		CompanySize:          or(echoed.CompanySize, draft.CompanySize),
		CountryHQ:            or(echoed.CountryHQ, draft.CountryHQ),
		InterestedIn:         or(echoed.InterestedIn, draft.InterestedIn),
		GeographiesTargeting: or(echoed.GeographiesTargeting, draft.GeographiesTargeting),
		HearAboutUs:          or(echoed.HearAboutUs, draft.HearAboutUs),
		CreatedAt:            or(model.DisplayDate(echoed.CreatedAt), existing.CreatedAt),
		Saved:                existing.Saved,
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

// Delete removes the contact remotely, then drops it from the working set
// only after server confirmation.
func (l *ContactList) Delete(ctx context.Context, token, id string) error {
	if err := l.backend.DeleteContact(ctx, token, id); err != nil {
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

// ToggleSave flips the client-only saved pin. The remote PUT is best-effort:
// the local flip applies whether or not the upstream accepted it, so the flag
// is eventually consistent and client-authoritative.
func (l *ContactList) ToggleSave(ctx context.Context, token, id string) (ContactRow, error) {
	existing, err := l.Get(id)
	if err != nil {
		return ContactRow{}, err
	}
	newSaved := !existing.Saved

	if _, err := l.backend.UpdateContact(ctx, token, id, map[string]bool{"saved": newSaved}); err != nil {
		log.Printf("toggle save for contact %s: %v", id, err)
	}

	l.mu.Lock()
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows[i].Saved = newSaved
			existing = l.rows[i]
			break
		}
	}
	l.mu.Unlock()
	return existing, nil
}
