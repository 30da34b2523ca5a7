// careeros-collector-service
//
// Job collection backend for the CareerOS browser shell.
// Exposes a JSON action surface used by the popup/options UIs:
//   - detectJob(url)              — fetch a job board page and extract a record
//   - bookmarkJob(jobData)        — persist a detected job + side effects
//   - getBookmarkedJobs()         — list saved jobs
//   - analyzeJob(jobId)           — run analysis over a saved job
//   - syncWithCareerOS()          — batch-push bookmarks to CareerOS
//   - checkAuthStatus / signOut   — authentication chain
//
// Bookmarked jobs are archived to PostgreSQL (dedup by source URL) and
// EVENT_JOB_BOOKMARKED / EVENT_JOB_ANALYZED are published to Redis.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careeros/collector-service/internal/analysis"
	"careeros/collector-service/internal/archive"
	"careeros/collector-service/internal/auth"
	"careeros/collector-service/internal/careeros"
	"careeros/collector-service/internal/collector"
	"careeros/collector-service/internal/config"
	"careeros/collector-service/internal/db"
	"careeros/collector-service/internal/extract"
	"careeros/collector-service/internal/scheduler"
	"careeros/collector-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[collector-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[collector-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[collector-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[collector-service] Redis connected ✓")

	kv := store.NewRedisKV(rdb, "collector")
	events := store.NewRedisEvents(rdb)

	// ── PostgreSQL (optional archive) ────────────────────────────────────────
	var arch *archive.Archive
	if cfg.DatabaseURL != "" {
		log.Println("[collector-service] Connecting to PostgreSQL…")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[collector-service] PostgreSQL: %v", err)
		}
		defer pool.Close()
		log.Println("[collector-service] PostgreSQL connected ✓")
		arch = archive.New(pool, logger)
	} else {
		log.Println("[collector-service] DATABASE_URL not set, archive disabled")
	}

	// ── Stores ───────────────────────────────────────────────────────────────
	bookmarks := store.NewBookmarks(kv)
	settings := store.NewSettingsStore(kv)
	if err := settings.Seed(ctx); err != nil {
		log.Printf("[collector-service] Settings seed: %v", err)
	}

	// baseURL follows the user-configurable setting, falling back to the
	// deployment default when settings are unreadable.
	baseURL := func(ctx context.Context) string {
		s, err := settings.Get(ctx)
		if err != nil || s.CareerOSURL == "" {
			return cfg.CareerOSURL
		}
		return s.CareerOSURL
	}

	// ── Authentication chain ─────────────────────────────────────────────────
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("[collector-service] Cookie jar: %v", err)
	}
	sessionClient := &http.Client{Jar: jar, Timeout: 15 * time.Second}
	tab, err := auth.NewCookieTab(cfg.CareerOSURL, sessionClient)
	if err != nil {
		log.Fatalf("[collector-service] Session tab: %v", err)
	}
	probe := auth.NewSessionProbe(auth.StaticTabSource{tab})

	authClient := auth.NewClient(baseURL, cfg.ExtensionID, cfg.ExtensionVersion)
	authSvc := auth.NewService(kv, authClient, probe, logger)
	authErrors := auth.NewErrorHandler(kv, authSvc, logger)
	defer authErrors.Stop()

	// ── Collector pipeline ───────────────────────────────────────────────────
	careerOS := careeros.NewClient(baseURL)
	badge := func(count int) {
		logger.Info("badge updated", "count", count)
	}
	// Job board pages are fetched without the CareerOS cookie session.
	pageClient := &http.Client{Timeout: 15 * time.Second}
	svc := collector.NewService(bookmarks, settings, analysis.NewStubAnalyzer(), careerOS, arch, events, badge, extract.NewBuilder(), collector.NewHTTPFetcher(pageClient), logger)

	// ── Background sync cron ─────────────────────────────────────────────────
	syncScheduler := scheduler.NewSyncScheduler(svc.SyncWithCareerOS, cfg.SyncIntervalHours, logger)
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatalf("[collector-service] Scheduler: %v", err)
	}
	defer syncScheduler.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	h := collector.NewHandler(svc, authSvc, authErrors, scheduler.Real{}, logger)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[collector-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[collector-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[collector-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[collector-service] Shutdown error: %v", err)
	}
	log.Println("[collector-service] Stopped ✓")
}
