package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lumenphotos/photosharebackend/database"
	"github.com/lumenphotos/photosharebackend/models"
)

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

func createTestAlbum(t *testing.T, db *gorm.DB, name string) *models.Album {
	t.Helper()
	user := &models.User{Username: "owner-" + name}
	require.NoError(t, user.SetPassword("owner-password"))
	require.NoError(t, db.Create(user).Error)

	album := &models.Album{Name: name, OwnerID: user.ID}
	require.NoError(t, NewAlbumRepository(db).Create(album))
	return album
}

func seedSession(t *testing.T, repo *GuestSessionRepository, albumID uint, token string, expiresIn time.Duration) *models.GuestSession {
	t.Helper()
	now := time.Now()
	session := &models.GuestSession{
		AlbumID:      albumID,
		SessionToken: token,
		IPAddress:    "203.0.113.7",
		IssuedAt:     now,
		AccessedAt:   now,
		ExpiresAt:    now.Add(expiresIn),
	}
	require.NoError(t, repo.Create(session))
	return session
}

func TestTouchIfActiveExtendsUnexpiredSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "touch-active")

	seedSession(t, repo, album.ID, "tok-1", time.Minute)

	extended, err := repo.TouchIfActive(album.ID, "tok-1", 10*time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), extended.ExpiresAt, 2*time.Second)
	assert.WithinDuration(t, time.Now(), extended.AccessedAt, 2*time.Second)
}

func TestTouchIfActiveRefusesExpiredSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "touch-expired")

	seedSession(t, repo, album.ID, "tok-1", -time.Minute)

	_, err := repo.TouchIfActive(album.ID, "tok-1", 10*time.Minute)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "an expired session must never be resurrected")

	// the expired row itself is untouched
	session, err := repo.GetByAlbumAndToken(album.ID, "tok-1")
	require.NoError(t, err)
	assert.True(t, session.Expired())
}

func TestTouchIfActiveIsScopedToAlbum(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "touch-scope-a")
	other := createTestAlbum(t, db, "touch-scope-b")

	seedSession(t, repo, album.ID, "tok-1", time.Minute)

	_, err := repo.TouchIfActive(other.ID, "tok-1", 10*time.Minute)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListActiveAndExpiredByAlbum(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "list-sessions")

	seedSession(t, repo, album.ID, "active-1", time.Minute)
	seedSession(t, repo, album.ID, "active-2", 2*time.Minute)
	seedSession(t, repo, album.ID, "expired-1", -time.Minute)

	active, err := repo.ListActiveByAlbum(album.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	expired, err := repo.ListExpiredByAlbum(album.ID, 20)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "expired-1", expired[0].SessionToken)

	count, err := repo.CountActiveByAlbum(album.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestDeleteByIDIsNotFoundWhenAlreadyGone(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "delete-by-id")

	session := seedSession(t, repo, album.ID, "tok-1", time.Minute)

	require.NoError(t, repo.DeleteByID(session.ID))
	assert.ErrorIs(t, repo.DeleteByID(session.ID), gorm.ErrRecordNotFound)
}

func TestDeleteAllByAlbumReportsOnlyActiveSessions(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "delete-all")

	seedSession(t, repo, album.ID, "active-1", time.Minute)
	seedSession(t, repo, album.ID, "active-2", 2*time.Minute)
	seedSession(t, repo, album.ID, "expired-1", -time.Minute)

	revoked, err := repo.DeleteAllByAlbum(album.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked, "expired rows are purged but not counted as revoked")

	for _, token := range []string{"active-1", "active-2", "expired-1"} {
		_, err := repo.GetByAlbumAndToken(album.ID, token)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	}
}

func TestDeleteExpiredLeavesActiveSessionsAlone(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	album := createTestAlbum(t, db, "delete-expired")

	seedSession(t, repo, album.ID, "active-1", time.Minute)
	seedSession(t, repo, album.ID, "expired-1", -time.Minute)
	seedSession(t, repo, album.ID, "expired-2", -time.Hour)

	removed, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	count, err := repo.CountActive()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeleteOrphanedRemovesSessionsOfDeletedAlbums(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	albumRepo := NewAlbumRepository(db)
	kept := createTestAlbum(t, db, "orphan-kept")
	doomed := createTestAlbum(t, db, "orphan-doomed")

	seedSession(t, repo, kept.ID, "kept-1", time.Minute)
	seedSession(t, repo, doomed.ID, "doomed-1", time.Minute)
	seedSession(t, repo, doomed.ID, "doomed-2", time.Minute)

	require.NoError(t, albumRepo.Delete(doomed.ID))

	removed, err := repo.DeleteOrphaned()
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, err = repo.GetByAlbumAndToken(kept.ID, "kept-1")
	assert.NoError(t, err)
}

func TestDisableSharingRevokesSessionsTransactionally(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestSessionRepository(db)
	albumRepo := NewAlbumRepository(db)
	album := createTestAlbum(t, db, "disable-sharing")

	require.NoError(t, albumRepo.EnableSharing(album.ID, "share-token", "not-a-real-hash"))
	seedSession(t, repo, album.ID, "tok-1", time.Minute)
	seedSession(t, repo, album.ID, "tok-2", -time.Minute)

	revoked, err := albumRepo.DisableSharing(album.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, revoked, "disable revokes expired rows too, not just active ones")

	reloaded, err := albumRepo.GetByID(album.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.SharingEnabled)
	assert.Nil(t, reloaded.SharingToken)
	assert.Nil(t, reloaded.SharingPasswordHash)
}

func TestSharingTokenExists(t *testing.T) {
	db := newTestDB(t)
	albumRepo := NewAlbumRepository(db)
	album := createTestAlbum(t, db, "token-exists")

	require.NoError(t, albumRepo.EnableSharing(album.ID, "share-token", "not-a-real-hash"))

	exists, err := albumRepo.SharingTokenExists("share-token")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = albumRepo.SharingTokenExists("no-such-token")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestShortURLTrackAccessCounts(t *testing.T) {
	db := newTestDB(t)
	album := createTestAlbum(t, db, "short-url")
	shortRepo := NewShortURLRepository(db)

	shortURL := &models.ShortURL{
		Token:     "abc12345",
		AlbumID:   album.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, shortRepo.Create(shortURL))

	require.NoError(t, shortRepo.TrackAccess(shortURL.ID))
	require.NoError(t, shortRepo.TrackAccess(shortURL.ID))

	reloaded, err := shortRepo.GetByToken("abc12345")
	require.NoError(t, err)
	assert.EqualValues(t, 2, reloaded.AccessCount)
	require.NotNil(t, reloaded.AccessedAt)
	assert.WithinDuration(t, time.Now(), *reloaded.AccessedAt, 2*time.Second)
}

func TestViewEventCreateRejectsUnknownType(t *testing.T) {
	db := newTestDB(t)
	album := createTestAlbum(t, db, "event-type")
	eventRepo := NewViewEventRepository(db)

	err := eventRepo.Create(&models.AlbumViewEvent{
		AlbumID:   album.ID,
		EventType: "made_up_event",
		IPAddress: "203.0.113.7",
	})
	assert.Error(t, err)
}

func TestViewEventDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	album := createTestAlbum(t, db, "event-retention")
	eventRepo := NewViewEventRepository(db)

	old := &models.AlbumViewEvent{
		AlbumID:    album.ID,
		EventType:  models.EventTypePhotoView,
		IPAddress:  "203.0.113.7",
		OccurredAt: time.Now().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, eventRepo.Create(old))
	recent := &models.AlbumViewEvent{
		AlbumID:   album.ID,
		EventType: models.EventTypePhotoView,
		IPAddress: "203.0.113.7",
	}
	require.NoError(t, eventRepo.Create(recent))

	removed, err := eventRepo.DeleteOlderThan(time.Now().Add(-7 * 24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	events, err := eventRepo.ListRecentByAlbum(album.ID, time.Now().Add(-30*24*time.Hour), 100)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
