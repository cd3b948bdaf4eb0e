package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/model"
	"github.com/vidtube/backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := db.NewMemory()
	m := metrics.New()

	auth, err := service.NewAuthService(repo, config.AuthConfig{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    time.Hour,
		BcryptCost:         bcrypt.MinCost,
		CookiePath:         "/",
		CookieSameSite:     "lax",
	}, true, log, m)
	require.NoError(t, err)

	return NewRouter(RouterDeps{
		Auth:        auth,
		Relations:   service.NewRelationService(repo, log, m),
		Metrics:     m,
		Log:         log,
		CORSOrigins: []string{"http://localhost:3000"},
	})
}

func doJSON(r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// registerAndLogin returns the user and both session cookies.
func registerAndLogin(t *testing.T, r http.Handler, username string) (model.PublicUser, *http.Cookie, *http.Cookie) {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/v1/users/register", model.RegisterRequest{
		FullName: "Test User",
		Email:    username + "@example.com",
		Username: username,
		Password: "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user model.PublicUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))

	w = doJSON(r, http.MethodPost, "/api/v1/users/login", model.LoginRequest{Identifier: username, Password: "s3cretpass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := cookieByName(w, "accessToken")
	refresh := cookieByName(w, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return user, access, refresh
}

func TestPingAndRoot(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = doJSON(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestLoginSetsHttpOnlyCookies(t *testing.T) {
	r := newTestRouter(t)
	_, access, refresh := registerAndLogin(t, r, "alice")

	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), refresh.MaxAge)
}

func TestLoginInvalidCredential(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r, "alice")

	wrong := doJSON(r, http.MethodPost, "/api/v1/users/login", model.LoginRequest{Identifier: "alice", Password: "wrongpass1"})
	unknown := doJSON(r, http.MethodPost, "/api/v1/users/login", model.LoginRequest{Identifier: "nobody", Password: "wrongpass1"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRegisterDuplicateIsBadRequest(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/users/register", model.RegisterRequest{
		FullName: "Again",
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "s3cretpass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	_, _, refresh := registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := cookieByName(w, "refreshToken")
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// body is accepted when no cookie is sent
	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", model.RefreshRequest{RefreshToken: rotated.Value})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	r := newTestRouter(t)
	_, access, refresh := registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/users/logout", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := cookieByName(w, "refreshToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = doJSON(r, http.MethodPost, "/api/v1/users/refresh-token", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	user, access, _ := registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodGet, "/api/v1/users/current-user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/users/current-user", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.PublicUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, user.ID, got.ID)
	assert.NotContains(t, w.Body.String(), "password")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	_, access, _ := registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/users/change-password", model.ChangePasswordRequest{OldPassword: "nope12345", NewPassword: "newpass123"}, access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/change-password", model.ChangePasswordRequest{OldPassword: "s3cretpass", NewPassword: "newpass123"}, access)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/login", model.LoginRequest{Username: "alice", Password: "newpass123"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestToggleEndpoints(t *testing.T) {
	r := newTestRouter(t)
	_, access, _ := registerAndLogin(t, r, "alice")
	video := uuid.NewString()

	w := doJSON(r, http.MethodPost, "/api/v1/likes/toggle/v/"+video, nil, access)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res model.ToggleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Active)
	assert.Equal(t, model.KindVideoLike, res.Kind)

	w = doJSON(r, http.MethodGet, "/api/v1/likes/videos", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var page model.RelationPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, video, page.Items[0].TargetID)

	w = doJSON(r, http.MethodPost, "/api/v1/likes/toggle/v/"+video, nil, access)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/likes/toggle/v/not-a-uuid", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/likes/toggle/c/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/likes/videos?limit=abc", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	r := newTestRouter(t)
	alice, aliceAccess, _ := registerAndLogin(t, r, "alice")
	bob, bobAccess, _ := registerAndLogin(t, r, "bob")

	w := doJSON(r, http.MethodPost, "/api/v1/subscriptions/c/"+alice.ID, nil, aliceAccess)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/subscriptions/c/"+alice.ID, nil, bobAccess)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/subscriptions/c/"+alice.ID, nil, bobAccess)
	require.Equal(t, http.StatusOK, w.Code)
	var subscribers model.RelationPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subscribers))
	require.Len(t, subscribers.Items, 1)
	assert.Equal(t, bob.ID, subscribers.Items[0].ActorID)

	w = doJSON(r, http.MethodGet, "/api/v1/subscriptions/u/"+bob.ID, nil, aliceAccess)
	require.Equal(t, http.StatusOK, w.Code)
	var channels model.RelationPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &channels))
	require.Len(t, channels.Items, 1)
	assert.Equal(t, alice.ID, channels.Items[0].TargetID)
}

func TestMediaRoutesDisabledWithoutStorage(t *testing.T) {
	r := newTestRouter(t)
	_, access, _ := registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodPatch, "/api/v1/users/avatar", nil, access)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r, "alice")

	w := doJSON(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vidtube_session_events_total{op="login",outcome="ok"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
