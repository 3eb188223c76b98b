package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lumenphotos/photosharebackend/config"
	"github.com/lumenphotos/photosharebackend/database"
	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/services"
	"github.com/lumenphotos/photosharebackend/sharing"
)

const guestPassword = "secret1"

type externalTestEnv struct {
	db      *gorm.DB
	service *services.SharingService
	router  chi.Router
	album   *models.Album
	token   string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	return db
}

func newExternalTestEnv(t *testing.T, sessionWindow time.Duration) *externalTestEnv {
	t.Helper()
	db := newTestDB(t)
	cfg := config.Config{
		ExternalBaseURL:     "http://photos.test",
		SigningSecret:       "test-signing-secret",
		SessionWindow:       sessionWindow,
		MinPasswordLength:   6,
		MaxPasswordAttempts: 5,
		LockoutWindow:       15 * time.Minute,
		AuditRetention:      7 * 24 * time.Hour,
		ShortURLTTL:         7 * 24 * time.Hour,
	}

	svc := services.NewSharingService(
		cfg,
		repository.NewAlbumRepository(db),
		repository.NewGuestSessionRepository(db),
		repository.NewViewEventRepository(db),
		repository.NewShortURLRepository(db),
		sharing.NewRateLimiter(sharing.NewMemoryAttemptStore(), cfg.MaxPasswordAttempts, cfg.LockoutWindow),
		sharing.NewCredentialSigner(cfg.SigningSecret),
	)

	user := &models.User{Username: "owner"}
	require.NoError(t, user.SetPassword("owner-password"))
	require.NoError(t, db.Create(user).Error)
	album := &models.Album{Name: "Summer Trip", OwnerID: user.ID}
	require.NoError(t, svc.AlbumRepo.Create(album))
	album, err := svc.EnableSharing(album.ID, guestPassword)
	require.NoError(t, err)

	handler := &ExternalAlbumHandler{Service: svc, PhotoRepo: repository.NewPhotoRepository(db)}
	r := chi.NewRouter()
	r.Route("/shared/albums/{token}", func(r chi.Router) {
		r.Get("/", handler.ShowSharedAlbum)
		r.Get("/password", handler.PasswordForm)
		r.Post("/authenticate", handler.Authenticate)
		r.Post("/track_photo_view", handler.TrackPhotoView)
	})

	return &externalTestEnv{db: db, service: svc, router: r, album: album, token: *album.SharingToken}
}

func (env *externalTestEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:52100"
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *externalTestEnv) authenticate(t *testing.T, password string) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodPost, fmt.Sprintf("/shared/albums/%s/authenticate", env.token),
		map[string]string{"password": password})
}

func accessCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == AlbumAccessCookie {
			return cookie
		}
	}
	t.Fatal("response carries no album access cookie")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUnknownTokenGetsUniform404(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.do(t, http.MethodGet, "/shared/albums/no-such-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "The requested page could not be found", resp.Errors[0].Detail)
}

func TestDisabledAlbumGetsSame404AsUnknownToken(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	_, err := env.service.DisableSharing(env.album.ID)
	require.NoError(t, err)

	unknown := env.do(t, http.MethodGet, "/shared/albums/no-such-token", nil)
	disabled := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil)

	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, http.StatusNotFound, disabled.Code)
	assert.Equal(t, unknown.Body.String(), disabled.Body.String(), "responses must not distinguish the two cases")
}

func TestAlbumWithoutCredentialRedirectsToPasswordForm(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/shared/albums/%s/password", env.token), rec.Header().Get("Location"))
}

func TestPasswordFormIsReachableWithoutCredential(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s/password", env.token), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["password_required"])
	assert.Equal(t, fmt.Sprintf("/shared/albums/%s/authenticate", env.token), body["authenticate_path"])
}

func TestAuthenticateGrantsCookiesAndRedirects(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.authenticate(t, guestPassword)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/shared/albums/%s", env.token), rec.Header().Get("Location"))

	var access, expiry *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		switch cookie.Name {
		case AlbumAccessCookie:
			access = cookie
		case SessionExpiryCookie:
			expiry = cookie
		}
	}
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly, "the credential cookie must be unreadable from JavaScript")
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	require.NotNil(t, expiry)
	assert.False(t, expiry.HttpOnly, "the countdown cookie is read client-side")
	expiresAt, err := strconv.ParseInt(expiry.Value, 10, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Add(10*time.Minute).Unix(), expiresAt, 2)
}

func TestAuthenticatedGuestSeesAlbumAndWindowSlides(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	cookie := accessCookie(t, env.authenticate(t, guestPassword))

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	albumBody, ok := body["album"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Summer Trip", albumBody["name"])
	assert.InDelta(t, float64(10*60), body["session_expires_in_seconds"], 2)

	// each page view refreshes the countdown cookie
	var refreshed bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionExpiryCookie {
			refreshed = true
		}
	}
	assert.True(t, refreshed)
}

func TestPageViewRefreshesCredentialCookie(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	cookie := accessCookie(t, env.authenticate(t, guestPassword))

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed := accessCookie(t, rec)
	assert.Equal(t, cookie.Value, refreshed.Value)
	assert.True(t, refreshed.HttpOnly)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), refreshed.Expires, 2*time.Second,
		"the credential cookie's lifetime must follow the slid window")
}

func TestWrongPasswordReturnsRemainingAttempts(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.authenticate(t, "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.EqualValues(t, 4, body["remaining_attempts"])
	assert.Equal(t, "Incorrect password. You have 4 attempts remaining.", body["error"])
}

func TestLastAttemptWarningAndLockout(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	for i := 0; i < 3; i++ {
		env.authenticate(t, "wrong-password")
	}

	warned := env.authenticate(t, "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, warned.Code)
	assert.Contains(t, decodeBody(t, warned)["error"], "1 more attempt")

	last := env.authenticate(t, "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, last.Code)
	assert.Contains(t, decodeBody(t, last)["error"], "last attempt")

	lockedOut := env.authenticate(t, guestPassword)
	assert.Equal(t, http.StatusTooManyRequests, lockedOut.Code)
	body := decodeBody(t, lockedOut)
	assert.Greater(t, body["retry_after_minutes"], float64(0))
}

func TestRevokedSessionRedirectsOnNextRequest(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	cookie := accessCookie(t, env.authenticate(t, guestPassword))

	_, err := env.service.RevokeAllSessions(env.album.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/shared/albums/%s/password", env.token), rec.Header().Get("Location"))
}

func TestTamperedCredentialIsTreatedAsAbsent(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	cookie := accessCookie(t, env.authenticate(t, guestPassword))
	cookie.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/shared/albums/%s", env.token), nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestTrackPhotoViewRequiresMembership(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)
	cookie := accessCookie(t, env.authenticate(t, guestPassword))

	photoRepo := repository.NewPhotoRepository(env.db)
	inAlbum := &models.Photo{OwnerID: env.album.OwnerID}
	require.NoError(t, photoRepo.Create(inAlbum))
	require.NoError(t, photoRepo.AddToAlbum(env.album.ID, inAlbum.ID, 0))
	outside := &models.Photo{OwnerID: env.album.OwnerID}
	require.NoError(t, photoRepo.Create(outside))

	path := fmt.Sprintf("/shared/albums/%s/track_photo_view", env.token)

	rec := env.do(t, http.MethodPost, path, map[string]uint{"photo_id": inAlbum.ID}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]uint{"photo_id": outside.ID}, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	events, err := env.service.EventRepo.ListRecentByAlbum(env.album.ID, time.Now().Add(-time.Hour), 100)
	require.NoError(t, err)
	var photoViews int
	for _, event := range events {
		if event.EventType == models.EventTypePhotoView {
			photoViews++
			require.NotNil(t, event.PhotoID)
			assert.Equal(t, inAlbum.ID, *event.PhotoID)
		}
	}
	assert.Equal(t, 1, photoViews, "only the in-album view is recorded")
}

func TestTrackPhotoViewWithoutSessionRedirects(t *testing.T) {
	env := newExternalTestEnv(t, 10*time.Minute)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/shared/albums/%s/track_photo_view", env.token),
		map[string]uint{"photo_id": 1})
	assert.Equal(t, http.StatusFound, rec.Code)
}
