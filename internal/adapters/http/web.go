package web

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"time"

	"rollcall/internal/adapters/http/middleware"
	accountStore "rollcall/internal/adapters/storage/account"
	athleteStore "rollcall/internal/adapters/storage/athlete"
	businessStore "rollcall/internal/adapters/storage/business"
	checkinStore "rollcall/internal/adapters/storage/checkin"
	groupStore "rollcall/internal/adapters/storage/group"
	outboxStore "rollcall/internal/adapters/storage/outbox"
	reportingStore "rollcall/internal/adapters/storage/reporting"
	scheduleStore "rollcall/internal/adapters/storage/schedule"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore   accountStore.Store
	BusinessStore  businessStore.Store
	GroupStore     groupStore.Store
	AthleteStore   athleteStore.Store
	CheckInStore   checkinStore.Store
	ScheduleStore  scheduleStore.Store
	ReportingStore reportingStore.Store
	OutboxStore    outboxStore.Store
}

// loadCSRFKey reads the CSRF secret from ROLLCALL_CSRF_KEY (hex-encoded, 32 bytes).
// In production, the key MUST be set. In development, a random key is generated per startup.
func loadCSRFKey() []byte {
	if keyHex := os.Getenv("ROLLCALL_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			log.Fatal("ROLLCALL_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key
	}
	if os.Getenv("ROLLCALL_ENV") == "production" {
		log.Fatal("ROLLCALL_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (sessions won't survive restart). Set ROLLCALL_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = os.Getenv("ROLLCALL_ENV") == "production"

	mux := http.NewServeMux()
	registerRoutes(mux)

	// CSRF key: 32-byte hex-encoded secret from env var
	csrfKey := loadCSRFKey()

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: SecurityHeaders -> CSRF -> Auth -> RateLimit -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
	)
}
