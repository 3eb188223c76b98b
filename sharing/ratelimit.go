package sharing

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// AttemptStore is a TTL-keyed counter store with atomic increments, tracking
// failed password attempts. An absent or expired key means zero attempts.
// The in-process implementation below suits single-instance deployments; a
// shared cache with native atomic increment can implement the same interface
// for multi-instance setups.
type AttemptStore interface {
	// Increment atomically bumps the counter for key and refreshes its expiry
	// to now+ttl, returning the new count.
	Increment(key string, ttl time.Duration) int
	// Get returns the current count and its expiry; zero count when absent or expired.
	Get(key string) (count int, expiresAt time.Time)
	// Clear removes the counter for key.
	Clear(key string)
}

type attemptEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryAttemptStore is a mutex-guarded in-process AttemptStore.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
}

// NewMemoryAttemptStore creates an empty in-process attempt store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{entries: make(map[string]*attemptEntry)}
}

func (s *MemoryAttemptStore) Increment(key string, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		entry = &attemptEntry{}
		s.entries[key] = entry
	}
	entry.count++
	entry.expiresAt = now.Add(ttl)
	return entry.count
}

func (s *MemoryAttemptStore) Get(key string) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0, time.Time{}
	}
	if !entry.expiresAt.After(time.Now()) {
		delete(s.entries, key)
		return 0, time.Time{}
	}
	return entry.count, entry.expiresAt
}

func (s *MemoryAttemptStore) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// RateLimiter enforces the per (source IP, album) failed-attempt limit with a
// rolling lockout window measured from the most recent failure.
type RateLimiter struct {
	store       AttemptStore
	maxAttempts int
	window      time.Duration
}

// NewRateLimiter creates a limiter over the given store.
func NewRateLimiter(store AttemptStore, maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, maxAttempts: maxAttempts, window: window}
}

func attemptKey(ip string, albumID uint) string {
	return fmt.Sprintf("album_password_attempts:%s:%d", ip, albumID)
}

// RecordFailure counts a failed attempt and refreshes the lockout window.
// It returns the updated attempt count.
func (rl *RateLimiter) RecordFailure(ip string, albumID uint) int {
	return rl.store.Increment(attemptKey(ip, albumID), rl.window)
}

// FailedAttempts returns the attempt count currently held against the pair.
func (rl *RateLimiter) FailedAttempts(ip string, albumID uint) int {
	count, _ := rl.store.Get(attemptKey(ip, albumID))
	return count
}

// RemainingAttempts returns how many more failures are allowed before lockout.
func (rl *RateLimiter) RemainingAttempts(ip string, albumID uint) int {
	remaining := rl.maxAttempts - rl.FailedAttempts(ip, albumID)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsLockedOut reports whether the pair has reached the attempt limit within the window.
func (rl *RateLimiter) IsLockedOut(ip string, albumID uint) bool {
	return rl.FailedAttempts(ip, albumID) >= rl.maxAttempts
}

// RemainingLockoutMinutes returns the whole minutes (rounded up) until the
// lockout window elapses, or zero when not locked out.
func (rl *RateLimiter) RemainingLockoutMinutes(ip string, albumID uint) int {
	count, expiresAt := rl.store.Get(attemptKey(ip, albumID))
	if count < rl.maxAttempts {
		return 0
	}
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Minutes()))
}

// Clear resets the counter for the pair, e.g. after a successful authentication.
func (rl *RateLimiter) Clear(ip string, albumID uint) {
	rl.store.Clear(attemptKey(ip, albumID))
}
