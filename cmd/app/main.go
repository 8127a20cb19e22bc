package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/alternator/internal/config"
    "github.com/local/alternator/internal/dispatcher"
    "github.com/local/alternator/internal/fetch"
    logpkg "github.com/local/alternator/internal/logger"
    "github.com/local/alternator/internal/metrics"
    "github.com/local/alternator/internal/orchestrator"
    "github.com/local/alternator/internal/preview"
    "github.com/local/alternator/internal/session"
    "github.com/local/alternator/internal/statuscheck"
    "github.com/local/alternator/internal/store"
    web "github.com/local/alternator/internal/web"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Merge status store: Redis when configured, in-memory otherwise
    var statusStore store.StatusStore
    var redisPinger statuscheck.RedisPinger
    if cfg.Store.RedisURL != "" {
        rs, err := store.NewRedisStatus(cfg.Store.RedisURL, cfg.Session.TTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis status store")
        }
        statusStore = rs
        redisPinger = rs
    } else {
        statusStore = store.NewMemoryStatus()
    }
    defer statusStore.Close()

    // Sessions + artifact spool
    sessions, err := session.NewManager(cfg.Merge.SpoolDir, cfg.Session.TTL)
    if err != nil {
        log.Fatal().Err(err).Msg("failed to init session manager")
    }
    stop := make(chan struct{})
    sessions.StartSweeper(5*time.Minute, stop)
    go spoolCleanupLoop(cfg.Merge.SpoolDir, cfg.Merge.ArtifactTTL, stop)

    // Merge worker pool
    pool := dispatcher.New(dispatcher.Config{Concurrency: cfg.Merge.Concurrency})
    pool.Start()

    orch := orchestrator.New(orchestrator.Dependencies{
        Sessions: sessions,
        Status:   statusStore,
        Pool:     pool,
        Fetcher: fetch.New(fetch.Options{
            HTTPTimeout: cfg.Fetch.HTTPTimeout,
            MaxBytes:    cfg.Upload.MaxBytes,
        }),
        Preview: preview.New(cfg.Preview.DPI, cfg.Preview.Quality),
        Checker: statuscheck.New(statuscheck.Options{
            Redis:    redisPinger,
            S3Bucket: cfg.Fetch.S3Bucket,
            SpoolDir: cfg.Merge.SpoolDir,
        }),
        MaxUpload: cfg.Upload.MaxBytes,
    })

    mux := http.NewServeMux()
    orch.RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    // Dashboard
    dash := web.New(web.Options{Username: cfg.Server.WebUsername, Password: cfg.Server.WebPassword})
    dash.RegisterRoutes(mux)
    mux.Handle("/", http.RedirectHandler("/web/dashboard", http.StatusSeeOther))

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    sig := make(chan os.Signal, 1)
    signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
    <-sig
    close(stop)
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(ctx)
    _ = pool.Stop(ctx)
    fmt.Println("shutdown complete")
}

// spoolCleanupLoop sweeps orphaned artifact spool files.
func spoolCleanupLoop(dir string, maxAge time.Duration, stop <-chan struct{}) {
    t := time.NewTicker(15 * time.Minute)
    defer t.Stop()
    for {
        select {
        case <-stop:
            return
        case <-t.C:
            session.CleanupSpool(dir, maxAge)
        }
    }
}
