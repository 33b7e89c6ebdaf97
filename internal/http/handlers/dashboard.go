package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/notify"
)

// statsTimeout bounds the stats fetch; the page renders zeros rather than
// spin forever on a slow upstream.
const statsTimeout = 5 * time.Second

// DashboardHandler serves the dashboard stats and the navbar data endpoints.
type DashboardHandler struct {
	backend *backend.Client
	poller  *notify.Poller
	search  *notify.SearchIndex
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(client *backend.Client, poller *notify.Poller, search *notify.SearchIndex) *DashboardHandler {
	return &DashboardHandler{backend: client, poller: poller, search: search}
}

// statsResponse is the JSON response for GET /dashboard/stats
type statsResponse struct {
	TotalClients int `json:"totalClients"`
	TotalUsers   int `json:"totalUsers"`
	SavedClients int `json:"savedClients"`
}

// HandleStats handles GET /dashboard/stats. Both collections are fetched in
// parallel; any failure or timeout degrades that counter to zero.
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), statsTimeout)
	defer cancel()

	var (
		contacts []model.Contact
		users    []model.User
	)
	contactsDone := make(chan error, 1)
	usersDone := make(chan error, 1)
	go func() {
		var err error
		contacts, err = h.backend.ListContacts(ctx, token)
		contactsDone <- err
	}()
	go func() {
		var err error
		users, err = h.backend.ListUsers(ctx, token)
		usersDone <- err
	}()

	if err := <-contactsDone; err != nil {
		log.Printf("stats contacts fetch: %v", err)
		contacts = nil
	}
	if err := <-usersDone; err != nil {
		log.Printf("stats users fetch: %v", err)
		users = nil
	}

	saved := 0
	for _, c := range contacts {
		if c.Saved {
			saved++
		}
	}

	respondJSON(w, http.StatusOK, statsResponse{
		TotalClients: len(contacts),
		TotalUsers:   len(users),
		SavedClients: saved,
	})
}

// HandleNotifications handles GET /notifications: the current badge count and
// new-contact list from the background poller.
func (h *DashboardHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	count, items := h.poller.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"count":         count,
		"notifications": items,
	})
}

// HandleSearch handles GET /search?q=. Lazily loads the index if login's
// background load has not finished or failed.
func (h *DashboardHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	token, ok := sessionToken(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if !h.search.Loaded() {
		if err := h.search.Load(r.Context(), token); err != nil {
			log.Printf("search index load: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, h.search.Search(r.URL.Query().Get("q")))
}
