package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "rollcall/internal/adapters/email"
	web "rollcall/internal/adapters/http"
	"rollcall/internal/adapters/storage"
	accountStore "rollcall/internal/adapters/storage/account"
	athleteStore "rollcall/internal/adapters/storage/athlete"
	businessStore "rollcall/internal/adapters/storage/business"
	checkinStore "rollcall/internal/adapters/storage/checkin"
	groupStore "rollcall/internal/adapters/storage/group"
	outboxStorePkg "rollcall/internal/adapters/storage/outbox"
	reportingStore "rollcall/internal/adapters/storage/reporting"
	scheduleStore "rollcall/internal/adapters/storage/schedule"
	"rollcall/internal/application/orchestrators"
	"rollcall/internal/application/projections"
	"rollcall/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Initialize database with WAL mode, foreign keys, and busy timeout
	dbPath := envOrDefault("ROLLCALL_DB", "rollcall.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	// Health check
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	// Run database migrations
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Wrap DB with slow-query logging
	timedDB := storage.NewTimedDB(db)

	// Create store instances
	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:   acctStore,
		BusinessStore:  businessStore.NewSQLiteStore(timedDB),
		GroupStore:     groupStore.NewSQLiteStore(timedDB),
		AthleteStore:   athleteStore.NewSQLiteStore(timedDB),
		CheckInStore:   checkinStore.NewSQLiteStore(timedDB),
		ScheduleStore:  scheduleStore.NewSQLiteStore(timedDB),
		ReportingStore: reportingStore.NewSQLiteStore(timedDB),
		OutboxStore:    outboxStorePkg.NewSQLiteStore(timedDB),
	}

	// Seed the first admin account if the account table is empty
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: acctStore,
		GenerateID:   newID,
		Now:          time.Now,
	}
	seeded, err := orchestrators.SeedAdminAccount(context.Background(),
		os.Getenv("ROLLCALL_ADMIN_EMAIL"), os.Getenv("ROLLCALL_ADMIN_PASSWORD"), seedDeps)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if seeded {
		log.Println("Admin account seeded from environment")
	}

	// Configure email sender
	var sender emailPkg.Sender
	emailFrom := envOrDefault("ROLLCALL_RESEND_FROM", "Rollcall <noreply@rollcall.app>")
	if resendKey := os.Getenv("ROLLCALL_RESEND_KEY"); resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if os.Getenv("ROLLCALL_ENV") == "production" {
			log.Println("WARNING: ROLLCALL_RESEND_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set ROLLCALL_RESEND_KEY for real delivery)")
		}
	}

	// Start outbox background worker for delivering queued emails
	stopCh := make(chan struct{})
	defer close(stopCh)
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender, From: emailFrom},
	})
	orchestrators.StartBackgroundWorker(processor, 1*time.Minute, stopCh)

	// Start the scheduled report ticker
	reportDeps := orchestrators.SendAttendanceReportsDeps{
		ReportingStore: stores.ReportingStore,
		OutboxStore:    stores.OutboxStore,
		Attendance: projections.GroupAttendanceDeps{
			BusinessStore: stores.BusinessStore,
			GroupStore:    stores.GroupStore,
			AthleteStore:  stores.AthleteStore,
			CheckInStore:  stores.CheckInStore,
			ScheduleStore: stores.ScheduleStore,
		},
		GenerateID: newID,
		Now:        time.Now,
	}
	startReportScheduler(reportDeps, stopCh)

	// Create HTTP handler with middleware
	mux := web.NewMux(stores)

	// Start server
	addr := envOrDefault("ROLLCALL_ADDR", ":8080")
	log.Printf("Rollcall %s starting on %s (env=%s, schema=%d)", version, addr, envOrDefault("ROLLCALL_ENV", "development"), storage.LatestSchemaVersion())

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// startReportScheduler runs the attendance report dispatch once a day.
// Cadence decisions live in the orchestrator; the ticker only wakes it.
func startReportScheduler(deps orchestrators.SendAttendanceReportsDeps, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				result, err := orchestrators.ExecuteSendAttendanceReports(context.Background(), deps)
				if err != nil {
					log.Printf("report scheduler error: %v", err)
				} else if result.ReportsSent > 0 {
					log.Printf("report scheduler: %d reports enqueued", result.ReportsSent)
				}
			case <-stopCh:
				return
			}
		}
	}()
}

func newID() string {
	return uuid.New().String()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
