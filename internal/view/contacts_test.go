package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
)

// fakeBackoffice serves the contact and user endpoints the working sets use.
type fakeBackoffice struct {
	mu       sync.Mutex
	contacts []model.Contact
	users    []model.User

	failUpdates  bool
	failDeletes  bool
	echoPartial  bool // update echoes only the id, as some deployments do
	updateCalls  int
	deleteCalls  int
	passwordSent bool
}

func (f *fakeBackoffice) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/contact":
			json.NewEncoder(w).Encode(map[string]any{"contacts": f.contacts})
		case r.Method == http.MethodPost && r.URL.Path == "/contact":
			var draft model.ContactDraft
			json.NewDecoder(r.Body).Decode(&draft)
			c := model.Contact{
				ID:        "c-new",
				FirstName: draft.FirstName,
				LastName:  draft.LastName,
				Email:     draft.Email,
				Phone:     model.FlexString(draft.Phone),
				CreatedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
			}
			f.contacts = append(f.contacts, c)
			json.NewEncoder(w).Encode(map[string]any{"contact": c})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/contact/"):
			f.updateCalls++
			if f.failUpdates {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"msg":"update failed"}`))
				return
			}
			id := strings.TrimPrefix(r.URL.Path, "/contact/")
			if f.echoPartial {
				json.NewEncoder(w).Encode(map[string]any{"contact": map[string]string{"_id": id}})
				return
			}
			var draft model.ContactDraft
			json.NewDecoder(r.Body).Decode(&draft)
			json.NewEncoder(w).Encode(map[string]any{"contact": model.Contact{
				ID:        id,
				FirstName: draft.FirstName,
				LastName:  draft.LastName,
				Email:     draft.Email,
			}})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/contact/"):
			f.deleteCalls++
			if f.failDeletes {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"msg":"delete failed"}`))
				return
			}
			w.Write([]byte(`{"msg":"deleted"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/user":
			json.NewEncoder(w).Encode(map[string]any{"users": f.users})
		case r.Method == http.MethodPost && r.URL.Path == "/user/signup":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			u := model.User{
				ID:       "u-new",
				Username: req["username"],
				Email:    req["email"],
				Phone:    model.FlexString(req["phone"]),
				UserType: req["userType"],
			}
			f.users = append(f.users, u)
			json.NewEncoder(w).Encode(map[string]any{"user": u})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/user/"):
			var patch map[string]string
			json.NewDecoder(r.Body).Decode(&patch)
			if _, ok := patch["password"]; ok {
				f.passwordSent = true
			}
			json.NewEncoder(w).Encode(map[string]any{"user": model.User{
				ID:       strings.TrimPrefix(r.URL.Path, "/user/"),
				Username: patch["username"],
				Email:    patch["email"],
			}})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/user/"):
			w.Write([]byte(`{"msg":"deleted"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"unknown path"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedContacts() []model.Contact {
	return []model.Contact{
		{
			ID:        "c1",
			FirstName: "Amanda",
			LastName:  "Jones",
			Email:     "amanda@corp.com",
			Phone:     "555-0100",
			Country:   "DE",
			CreatedAt: time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:       "c2",
			LastName: "Smith",
			Email:    "smith@corp.com",
			Saved:    true,
			// zero CreatedAt: some documents predate the field
		},
	}
}

func TestContactList_loadDefaultsEveryField(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts()}
	l := NewContactList(backend.NewClient(fake.server(t).URL))

	require.NoError(t, l.Load(context.Background(), "tok"))
	require.True(t, l.Loaded())

	rows := l.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, "Amanda", rows[0].FirstName)
	assert.Equal(t, "2026-01-15", rows[0].CreatedAt)
	assert.Equal(t, "N/A", rows[0].JobTitle, "missing fields render as the placeholder")

	assert.Equal(t, "N/A", rows[1].FirstName)
	assert.Equal(t, "N/A", rows[1].CreatedAt, "zero timestamp renders as the placeholder")
	assert.True(t, rows[1].Saved)
}

func TestContactList_filter(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts()}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	assert.Len(t, l.Filter(""), 2)

	got := l.Filter("AMANDA")
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)

	// full-name match spans first and last name
	got = l.Filter("amanda jo")
	require.Len(t, got, 1)

	got = l.Filter("smith@corp")
	require.Len(t, got, 1)
	assert.Equal(t, "c2", got[0].ID)

	assert.Empty(t, l.Filter("zzz"))
}

func TestContactList_createAppendsServerRecord(t *testing.T) {
	fake := &fakeBackoffice{}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	row, err := l.Create(context.Background(), "tok", model.ContactDraft{
		FirstName: "Bob",
		Email:     "bob@corp.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "c-new", row.ID)
	assert.Equal(t, "Bob", row.FirstName)
	assert.Equal(t, "N/A", row.Country)
	assert.False(t, row.Saved)
	assert.Len(t, l.Rows(), 1)
}

func TestContactList_createFailureLeavesSetUnchanged(t *testing.T) {
	fake := &fakeBackoffice{}
	srv := fake.server(t)
	l := NewContactList(backend.NewClient(srv.URL))
	require.NoError(t, l.Load(context.Background(), "tok"))
	srv.Close()

	_, err := l.Create(context.Background(), "tok", model.ContactDraft{FirstName: "Bob"})
	require.Error(t, err)
	assert.Empty(t, l.Rows())
}

func TestContactList_updateMergesEchoAndPreservesSaved(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts(), echoPartial: true}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	row, err := l.Update(context.Background(), "tok", "c2", model.ContactDraft{
		FirstName: "Updated",
		Email:     "new@corp.com",
	})
	require.NoError(t, err)

	// Echo had only the id; submitted values fill the gaps.
	assert.Equal(t, "Updated", row.FirstName)
	assert.Equal(t, "new@corp.com", row.Email)
	assert.Equal(t, "N/A", row.Country, "fields absent everywhere default")
	assert.True(t, row.Saved, "the pin survives an update the server does not echo")

	got, err := l.Get("c2")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.FirstName)
}

func TestContactList_updatePreservesCreatedAt(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts(), echoPartial: true}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	row, err := l.Update(context.Background(), "tok", "c1", model.ContactDraft{FirstName: "X"})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", row.CreatedAt, "missing echo timestamp falls back to the existing row")
}

func TestContactList_deleteIsRemoteFirst(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts(), failDeletes: true}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	err := l.Delete(context.Background(), "tok", "c1")
	require.Error(t, err)
	assert.Len(t, l.Rows(), 2, "row stays until the server confirms")

	fake.failDeletes = false
	require.NoError(t, l.Delete(context.Background(), "tok", "c1"))
	assert.Len(t, l.Rows(), 1)
}

func TestContactList_toggleSaveFlipsLocallyEvenWhenUpstreamFails(t *testing.T) {
	fake := &fakeBackoffice{contacts: seedContacts(), failUpdates: true}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	require.NoError(t, l.Load(context.Background(), "tok"))

	row, err := l.ToggleSave(context.Background(), "tok", "c1")
	require.NoError(t, err)
	assert.True(t, row.Saved)
	assert.Equal(t, 1, fake.updateCalls, "the remote write is still attempted")

	// Toggling twice lands back where it started.
	row, err = l.ToggleSave(context.Background(), "tok", "c1")
	require.NoError(t, err)
	assert.False(t, row.Saved)
}

func TestContactList_getUnknownRow(t *testing.T) {
	fake := &fakeBackoffice{}
	l := NewContactList(backend.NewClient(fake.server(t).URL))
	_, err := l.Get("nope")
	assert.ErrorIs(t, err, ErrRowNotFound)
}
