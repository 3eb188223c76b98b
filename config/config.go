package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultSessionWindowMinutes = 10
	defaultLockoutWindowMinutes = 15
	defaultMaxPasswordAttempts  = 5
	defaultAuditRetentionDays   = 7
	defaultShortURLTTLDays      = 7
	defaultMinSharingPassword   = 6
)

type Config struct {
	// database path
	DatabasePath string

	// base URL used to build guest-facing sharing links
	ExternalBaseURL string

	// secret used to sign owner JWTs and guest session cookies
	SigningSecret string

	// guest session settings
	SessionWindow       time.Duration // sliding inactivity window for guest sessions
	MinPasswordLength   int
	MaxPasswordAttempts int
	LockoutWindow       time.Duration // rolling window measured from the last failed attempt

	// retention / sweeper settings
	AuditRetention       time.Duration
	ShortURLTTL          time.Duration
	SessionSweepInterval time.Duration
	AuditSweepInterval   time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "photoshare.db")

	secret := os.Getenv("SIGNING_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("SIGNING_SECRET must be set; guest cookies and owner tokens are signed with it")
	}

	baseURL := getEnvOrDefault("EXTERNAL_BASE_URL", "http://localhost:8080")

	sessionWindow := getEnvIntOrDefault("GUEST_SESSION_WINDOW_MINUTES", defaultSessionWindowMinutes)
	lockoutWindow := getEnvIntOrDefault("LOCKOUT_WINDOW_MINUTES", defaultLockoutWindowMinutes)
	maxAttempts := getEnvIntOrDefault("MAX_PASSWORD_ATTEMPTS", defaultMaxPasswordAttempts)
	retentionDays := getEnvIntOrDefault("AUDIT_RETENTION_DAYS", defaultAuditRetentionDays)
	shortURLDays := getEnvIntOrDefault("SHORT_URL_TTL_DAYS", defaultShortURLTTLDays)
	minPassword := getEnvIntOrDefault("MIN_SHARING_PASSWORD_LENGTH", defaultMinSharingPassword)
	sessionSweepMinutes := getEnvIntOrDefault("SESSION_SWEEP_INTERVAL_MINUTES", 60)
	auditSweepMinutes := getEnvIntOrDefault("AUDIT_SWEEP_INTERVAL_MINUTES", 24*60)

	cfg := Config{
		DatabasePath:         dbPath,
		ExternalBaseURL:      baseURL,
		SigningSecret:        secret,
		SessionWindow:        time.Duration(sessionWindow) * time.Minute,
		MinPasswordLength:    minPassword,
		MaxPasswordAttempts:  maxAttempts,
		LockoutWindow:        time.Duration(lockoutWindow) * time.Minute,
		AuditRetention:       time.Duration(retentionDays) * 24 * time.Hour,
		ShortURLTTL:          time.Duration(shortURLDays) * 24 * time.Hour,
		SessionSweepInterval: time.Duration(sessionSweepMinutes) * time.Minute,
		AuditSweepInterval:   time.Duration(auditSweepMinutes) * time.Minute,
	}

	return cfg, nil
}
