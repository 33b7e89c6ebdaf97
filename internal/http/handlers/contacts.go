package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/payland/gateway/internal/export"
	"github.com/payland/gateway/internal/middleware"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/view"
)

// ContactsHandler serves the contacts screen.
type ContactsHandler struct {
	contacts *view.ContactList
}

// NewContactsHandler creates a new contacts handler.
func NewContactsHandler(contacts *view.ContactList) *ContactsHandler {
	return &ContactsHandler{contacts: contacts}
}

func sessionToken(r *http.Request) (string, bool) {
	rec, ok := middleware.GetSession(r.Context())
	if !ok {
		return "", false
	}
	return rec.Token, true
}

// HandleList handles GET /contacts. Without ?q= the working set is refetched
// (page mount); with ?q= the already-fetched set is filtered per keystroke.
func (h *ContactsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" || !h.contacts.Loaded() {
		if err := h.contacts.Load(r.Context(), token); err != nil {
			// The screen renders whatever it has; a failed refresh only logs.
			log.Printf("load contacts: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"contacts": h.contacts.Filter(q)})
}

// HandleCreate handles POST /contacts.
func (h *ContactsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var draft model.ContactDraft
	if !decodeBody(w, r, &draft) {
		return
	}

	row, err := h.contacts.Create(r.Context(), token, draft)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"contact": row})
}

// HandleUpdate handles PUT /contacts/{id}.
func (h *ContactsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var draft model.ContactDraft
	if !decodeBody(w, r, &draft) {
		return
	}

	row, err := h.contacts.Update(r.Context(), token, chi.URLParam(r, "id"), draft)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"contact": row})
}

// HandleDelete handles DELETE /contacts/{id}.
func (h *ContactsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.contacts.Delete(r.Context(), token, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// HandleToggleSave handles POST /contacts/{id}/save. Best-effort remotely;
// the local pin flips regardless.
func (h *ContactsHandler) HandleToggleSave(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	row, err := h.contacts.ToggleSave(r.Context(), token, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"contact": row})
}

// HandleExport handles GET /contacts/export. ?ids= limits the export to the
// selected rows; otherwise ?q= filtering applies, matching the table.
func (h *ContactsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionToken(r); !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var rows []view.ContactRow
	if raw := r.URL.Query().Get("ids"); raw != "" {
		selected := make(map[string]bool)
		for _, id := range strings.Split(raw, ",") {
			selected[strings.TrimSpace(id)] = true
		}
		for _, row := range h.contacts.Rows() {
			if selected[row.ID] {
				rows = append(rows, row)
			}
		}
	} else {
		rows = h.contacts.Filter(r.URL.Query().Get("q"))
	}

	if len(rows) == 0 {
		respondWithError(w, http.StatusBadRequest, "No contacts to export")
		return
	}

	filename := export.Filename(time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteContacts(w, rows); err != nil {
		log.Printf("export contacts: %v", err)
	}
}
