package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/lumenphotos/photosharebackend/config"
	"github.com/lumenphotos/photosharebackend/models"
	"github.com/lumenphotos/photosharebackend/repository"
	"github.com/lumenphotos/photosharebackend/sharing"
)

// ErrPasswordTooShort is returned by EnableSharing when the guest password does
// not meet the configured minimum length.
var ErrPasswordTooShort = errors.New("sharing password is too short")

const tokenGenerationRetries = 10

// AuthOutcome classifies the result of a guest password attempt.
type AuthOutcome int

const (
	AuthGranted AuthOutcome = iota
	AuthDenied
	AuthLockedOut
)

// AuthResult carries the outcome of Authenticate plus whatever the caller
// needs to respond: the session and signed credential on grant, the remaining
// attempt count on denial, the lockout duration when blocked.
type AuthResult struct {
	Outcome           AuthOutcome
	Session           *models.GuestSession
	Credential        string
	RemainingAttempts int
	LockoutMinutes    int
}

// RequestContext is the audit-relevant slice of an incoming guest request.
type RequestContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// SharingService owns the external sharing and guest access lifecycle: token
// management, password gating with rate limiting, sliding-window sessions,
// revocation, and audit recording.
type SharingService struct {
	Cfg          config.Config
	AlbumRepo    repository.AlbumRepositoryInterface
	SessionRepo  repository.GuestSessionRepositoryInterface
	EventRepo    repository.ViewEventRepositoryInterface
	ShortURLRepo repository.ShortURLRepositoryInterface
	Limiter      *sharing.RateLimiter
	Signer       *sharing.CredentialSigner
}

// NewSharingService wires the service from its repositories and the rate
// limiter/signer leaves.
func NewSharingService(
	cfg config.Config,
	albumRepo repository.AlbumRepositoryInterface,
	sessionRepo repository.GuestSessionRepositoryInterface,
	eventRepo repository.ViewEventRepositoryInterface,
	shortURLRepo repository.ShortURLRepositoryInterface,
	limiter *sharing.RateLimiter,
	signer *sharing.CredentialSigner,
) *SharingService {
	return &SharingService{
		Cfg:          cfg,
		AlbumRepo:    albumRepo,
		SessionRepo:  sessionRepo,
		EventRepo:    eventRepo,
		ShortURLRepo: shortURLRepo,
		Limiter:      limiter,
		Signer:       signer,
	}
}

// EnableSharing turns on external access for an album: it validates the guest
// password, stores its bcrypt hash, and generates a globally unique URL-safe
// sharing token, retrying on collision.
func (s *SharingService) EnableSharing(albumID uint, password string) (*models.Album, error) {
	if len(password) < s.Cfg.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	album, err := s.AlbumRepo.GetByID(albumID)
	if err != nil {
		return nil, err
	}

	if err := album.SetSharingPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash sharing password: %w", err)
	}

	token, err := s.generateUniqueSharingToken()
	if err != nil {
		return nil, err
	}

	if err := s.AlbumRepo.EnableSharing(album.ID, token, *album.SharingPasswordHash); err != nil {
		return nil, err
	}
	return s.AlbumRepo.GetByID(album.ID)
}

func (s *SharingService) generateUniqueSharingToken() (string, error) {
	for i := 0; i < tokenGenerationRetries; i++ {
		token, err := sharing.RandomToken(sharing.SharingTokenBytes)
		if err != nil {
			return "", err
		}
		exists, err := s.AlbumRepo.SharingTokenExists(token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique sharing token after %d attempts", tokenGenerationRetries)
}

// DisableSharing turns off external access, clearing the sharing token and
// password hash and revoking every guest session in the same transaction.
// It returns the number of sessions revoked.
func (s *SharingService) DisableSharing(albumID uint) (int64, error) {
	return s.AlbumRepo.DisableSharing(albumID)
}

// ResolveSharedAlbum maps a sharing token to its album. A token that does not
// resolve and one that resolves to an album with sharing disabled are
// indistinguishable: both return gorm.ErrRecordNotFound, so callers cannot
// probe for album existence.
func (s *SharingService) ResolveSharedAlbum(token string) (*models.Album, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}
	album, err := s.AlbumRepo.GetBySharingToken(token)
	if err != nil {
		return nil, err
	}
	if !album.SharingEnabled {
		return nil, gorm.ErrRecordNotFound
	}
	return album, nil
}

// Authenticate gates guest entry to a shared album. The rate limiter is
// consulted before the stored secret is ever touched, so a locked-out caller
// learns nothing about the password. On success the failure counter is
// cleared, a session is created, and a signed credential is issued.
func (s *SharingService) Authenticate(album *models.Album, password string, reqCtx RequestContext) (AuthResult, error) {
	if s.Limiter.IsLockedOut(reqCtx.IPAddress, album.ID) {
		return AuthResult{
			Outcome:        AuthLockedOut,
			LockoutMinutes: s.Limiter.RemainingLockoutMinutes(reqCtx.IPAddress, album.ID),
		}, nil
	}

	if !album.CheckSharingPassword(password) {
		attempts := s.Limiter.RecordFailure(reqCtx.IPAddress, album.ID)
		s.recordEvent(album.ID, models.EventTypePasswordAttemptFailed, reqCtx, nil, "")

		remaining := s.Cfg.MaxPasswordAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return AuthResult{Outcome: AuthDenied, RemainingAttempts: remaining}, nil
	}

	s.Limiter.Clear(reqCtx.IPAddress, album.ID)

	session, err := s.createSession(album, reqCtx.IPAddress)
	if err != nil {
		return AuthResult{}, err
	}

	credential, err := s.Signer.Sign(session.SessionToken, album.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to sign guest credential: %w", err)
	}

	s.recordEvent(album.ID, models.EventTypePasswordEntry, reqCtx, nil, session.SessionToken)

	return AuthResult{Outcome: AuthGranted, Session: session, Credential: credential}, nil
}

func (s *SharingService) createSession(album *models.Album, ipAddress string) (*models.GuestSession, error) {
	token, err := sharing.RandomToken(sharing.SessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.GuestSession{
		AlbumID:      album.ID,
		SessionToken: token,
		IPAddress:    ipAddress,
		IssuedAt:     now,
		AccessedAt:   now,
		ExpiresAt:    now.Add(s.Cfg.SessionWindow),
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// ValidateSession checks a guest credential against the album and the session
// store, and slides the expiration window in the same atomic update when the
// session is valid. Every failure mode (missing, tampered, wrong album,
// expired, revoked) yields ok=false with no further distinction.
func (s *SharingService) ValidateSession(album *models.Album, credential string) (*models.GuestSession, bool) {
	claims, ok := s.Signer.Verify(credential)
	if !ok {
		return nil, false
	}
	if claims.AlbumID != album.ID {
		return nil, false
	}

	session, err := s.SessionRepo.TouchIfActive(album.ID, claims.SessionToken, s.Cfg.SessionWindow)
	if err != nil {
		return nil, false
	}
	return session, true
}

// RevokeSession removes one session by token. The bool reports whether it was
// still active when revoked; gorm.ErrRecordNotFound means it was already gone,
// which callers treat as a benign outcome.
func (s *SharingService) RevokeSession(albumID uint, sessionToken string) (bool, error) {
	session, err := s.SessionRepo.GetByAlbumAndToken(albumID, sessionToken)
	if err != nil {
		return false, err
	}
	wasActive := !session.Expired()
	if err := s.SessionRepo.DeleteByID(session.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// lost a race with the sweeper or another revocation
			return false, nil
		}
		return false, err
	}
	return wasActive, nil
}

// RevokeAllSessions deletes every session for an album and returns how many
// were still active, i.e. how many guests were actually logged out.
func (s *SharingService) RevokeAllSessions(albumID uint) (int64, error) {
	return s.SessionRepo.DeleteAllByAlbum(albumID)
}

// RecordPhotoView appends a photo_view audit event.
func (s *SharingService) RecordPhotoView(albumID, photoID uint, reqCtx RequestContext, sessionToken string) {
	s.recordEvent(albumID, models.EventTypePhotoView, reqCtx, &photoID, sessionToken)
}

// recordEvent appends an audit event. Audit failures are logged and swallowed;
// they must never break the guest-facing flow.
func (s *SharingService) recordEvent(albumID uint, eventType string, reqCtx RequestContext, photoID *uint, sessionToken string) {
	event := &models.AlbumViewEvent{
		AlbumID:      albumID,
		EventType:    eventType,
		PhotoID:      photoID,
		IPAddress:    reqCtx.IPAddress,
		UserAgent:    reqCtx.UserAgent,
		Referrer:     reqCtx.Referrer,
		SessionToken: sessionToken,
		OccurredAt:   time.Now(),
	}
	if err := s.EventRepo.Create(event); err != nil {
		log.Printf("ERROR recording %s view event for album %d: %v", eventType, albumID, err)
	}
}

// SharingURL builds the guest-facing link for a shared album, or "" when
// sharing is off.
func (s *SharingService) SharingURL(album *models.Album) string {
	if !album.SharingEnabled || album.SharingToken == nil {
		return ""
	}
	return fmt.Sprintf("%s/shared/albums/%s", s.Cfg.ExternalBaseURL, *album.SharingToken)
}

// MintShortURL returns an unexpired short URL for the album's sharing link,
// creating one when none exists.
func (s *SharingService) MintShortURL(album *models.Album) (*models.ShortURL, error) {
	if !album.SharingEnabled || album.SharingToken == nil {
		return nil, gorm.ErrRecordNotFound
	}

	existing, err := s.ShortURLRepo.FindActiveByAlbum(album.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for i := 0; i < tokenGenerationRetries; i++ {
		token, err := sharing.RandomToken(sharing.ShortURLTokenBytes)
		if err != nil {
			return nil, err
		}
		shortURL := &models.ShortURL{
			Token:     token,
			AlbumID:   album.ID,
			ExpiresAt: time.Now().Add(s.Cfg.ShortURLTTL),
		}
		if err := s.ShortURLRepo.Create(shortURL); err != nil {
			// uniqueIndex collision on the token; roll again
			continue
		}
		return shortURL, nil
	}
	return nil, fmt.Errorf("failed to generate a unique short URL token after %d attempts", tokenGenerationRetries)
}
