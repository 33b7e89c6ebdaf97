package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payland/gateway/internal/auth"
	"github.com/payland/gateway/internal/backend"
	"github.com/payland/gateway/internal/config"
	"github.com/payland/gateway/internal/flow"
	httphandler "github.com/payland/gateway/internal/http"
	"github.com/payland/gateway/internal/http/handlers"
	"github.com/payland/gateway/internal/model"
	"github.com/payland/gateway/internal/notify"
	"github.com/payland/gateway/internal/session"
	"github.com/payland/gateway/internal/view"
)

func TestMain(m *testing.M) {
	if os.Getenv("SESSION_SECRET") == "" {
		os.Setenv("SESSION_SECRET", "test-session-secret-at-least-32-chars")
	}
	os.Exit(m.Run())
}

// fakeUpstream is a stand-in backoffice API covering the endpoints the
// gateway touches during these tests.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user/login":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["username"] != "alice" || req["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"msg":"Invalid credentials"}`))
				return
			}
			w.Write([]byte(`{"token":"upstream-tok","user":{"_id":"u1","username":"alice","email":"alice@corp.com","phone":"100","userType":"admin"}}`))
		case "/user":
			w.Write([]byte(`{"users":[{"_id":"u1","username":"alice","email":"alice@corp.com","phone":"100","userType":"admin"}]}`))
		case "/contact", "/contact/recent-contacts":
			w.Write([]byte(`{"contacts":[{"_id":"c1","firstName":"Amanda","lastName":"Jones","email":"amanda@corp.com","createdAt":"` +
				time.Now().Add(-time.Hour).Format(time.RFC3339) + `"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"unknown path"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := fakeUpstream(t)
	os.Setenv("UPSTREAM_URL", upstream.URL)

	cfg, err := config.Load()
	require.NoError(t, err)

	sessions := session.NewManager(
		session.NewMemoryArea(session.DurableTTL),
		session.NewMemoryArea(session.ScopedTTL),
	)
	client := backend.NewClient(cfg.UpstreamURL)
	cookies := auth.NewCookieService(cfg.SessionSecret)
	flows := flow.NewManager(client)
	poller := notify.NewPoller(client, cfg.PollInterval)
	t.Cleanup(poller.Stop)
	search := notify.NewSearchIndex(client)

	authHandler := handlers.NewAuthHandler(client, sessions, cookies, flows, poller, search)
	contactsHandler := handlers.NewContactsHandler(view.NewContactList(client))
	usersHandler := handlers.NewUsersHandler(view.NewUserList(client), client, sessions)
	dashboardHandler := handlers.NewDashboardHandler(client, poller, search)

	router := httphandler.NewRouter(authHandler, contactsHandler, usersHandler, dashboardHandler, cookies, sessions)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getWithCookie(t *testing.T, url string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst), "body: %s", raw)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func login(t *testing.T, srv *httptest.Server, remember bool) *http.Cookie {
	t.Helper()
	resp := postJSON(t, srv.URL+"/auth/login", map[string]any{
		"username": "alice",
		"password": "pw",
		"remember": remember,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(t, resp)
	resp.Body.Close()
	return cookie
}

func TestLogin_invalidCredentials(t *testing.T) {
	srv := newGateway(t)

	resp := postJSON(t, srv.URL+"/auth/login", map[string]any{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "failed login must not set a session cookie")

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Invalid credentials", body.Error, "the upstream message passes through verbatim")
}

func TestLogin_success(t *testing.T) {
	srv := newGateway(t)

	resp := postJSON(t, srv.URL+"/auth/login", map[string]any{
		"username": "alice",
		"password": "pw",
		"remember": true,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Greater(t, cookie.MaxAge, 0, "remembered login gets a persistent cookie")

	var body struct {
		User            model.User `json:"user"`
		Redirect        string     `json:"redirect"`
		RedirectDelayMS int64      `json:"redirectDelayMs"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "alice", body.User.Username)
	assert.Equal(t, "/dashboard/admin", body.Redirect)
	assert.Equal(t, int64(1000), body.RedirectDelayMS)
}

func TestLogin_sessionScopedCookie(t *testing.T) {
	srv := newGateway(t)

	resp := postJSON(t, srv.URL+"/auth/login", map[string]any{
		"username": "alice",
		"password": "pw",
		"remember": false,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	cookie := sessionCookie(t, resp)
	assert.Equal(t, 0, cookie.MaxAge, "non-remembered login gets a browser-session cookie")
}

func TestProtectedRoutes_requireSession(t *testing.T) {
	srv := newGateway(t)

	resp := getWithCookie(t, srv.URL+"/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = getWithCookie(t, srv.URL+"/me", &http.Cookie{Name: auth.CookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestMe_returnsSessionUser(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, false)

	resp := getWithCookie(t, srv.URL+"/me", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User             model.User `json:"user"`
		SidebarCollapsed bool       `json:"sidebarCollapsed"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "u1", body.User.ID)
	assert.False(t, body.SidebarCollapsed)
}

func TestSidebar_persistsOnSession(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, true)

	resp := postJSON(t, srv.URL+"/shell/sidebar", map[string]bool{"collapsed": true}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getWithCookie(t, srv.URL+"/me", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		SidebarCollapsed bool `json:"sidebarCollapsed"`
	}
	decodeJSON(t, resp, &body)
	assert.True(t, body.SidebarCollapsed)
}

func TestLogout_invalidatesSession(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, true)

	resp := postJSON(t, srv.URL+"/auth/logout", map[string]any{}, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = getWithCookie(t, srv.URL+"/me", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the cookie is dead after logout")
	resp.Body.Close()
}

func TestContacts_listAndExport(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, false)

	resp := getWithCookie(t, srv.URL+"/contacts", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Contacts []view.ContactRow `json:"contacts"`
	}
	decodeJSON(t, resp, &body)
	require.Len(t, body.Contacts, 1)
	assert.Equal(t, "Amanda", body.Contacts[0].FirstName)
	assert.Equal(t, "N/A", body.Contacts[0].Country)

	resp = getWithCookie(t, srv.URL+"/contacts/export", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "PayLand_Contacts_")
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestNotifications_reflectPollerSnapshot(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, false)

	// Login triggers an async refresh; wait for it to land.
	require.Eventually(t, func() bool {
		resp := getWithCookie(t, srv.URL+"/notifications", cookie)
		defer resp.Body.Close()
		var body struct {
			Count int `json:"count"`
		}
		raw, _ := io.ReadAll(resp.Body)
		json.Unmarshal(raw, &body)
		return body.Count == 1
	}, 2*time.Second, 50*time.Millisecond)
}

func TestSearch_groupsResults(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, false)

	resp := getWithCookie(t, srv.URL+"/search?q=ama", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body notify.SearchResults
	decodeJSON(t, resp, &body)
	require.Len(t, body.Clients, 1)
	assert.Equal(t, "c1", body.Clients[0].ID)
	assert.Empty(t, body.Users)
}

func TestDashboardStats(t *testing.T) {
	srv := newGateway(t)
	cookie := login(t, srv, false)

	resp := getWithCookie(t, srv.URL+"/dashboard/stats", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		TotalClients int `json:"totalClients"`
		TotalUsers   int `json:"totalUsers"`
		SavedClients int `json:"savedClients"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, 1, body.TotalClients)
	assert.Equal(t, 1, body.TotalUsers)
	assert.Equal(t, 0, body.SavedClients)
}

func TestHealth(t *testing.T) {
	srv := newGateway(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
