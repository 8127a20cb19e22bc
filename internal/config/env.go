package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ServerConfig defines the HTTP surface.
type ServerConfig struct {
    Port        string
    WebUsername string
    WebPassword string
}

// UploadConfig bounds what a slot accepts.
type UploadConfig struct {
    MaxBytes int64
}

// MergeConfig defines merge execution and artifact spooling.
type MergeConfig struct {
    Concurrency int
    SpoolDir    string
    ArtifactTTL time.Duration
}

// SessionConfig bounds per-browser session state.
type SessionConfig struct {
    TTL time.Duration
}

// StoreConfig selects the merge status store backend.
type StoreConfig struct {
    RedisURL string // empty means in-memory
}

// FetchConfig controls remote source references.
type FetchConfig struct {
    S3Bucket    string
    HTTPTimeout time.Duration
}

// PreviewConfig controls slot thumbnail rendering.
type PreviewConfig struct {
    DPI     int
    Quality int
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Server  ServerConfig
    Upload  UploadConfig
    Merge   MergeConfig
    Session SessionConfig
    Store   StoreConfig
    Fetch   FetchConfig
    Preview PreviewConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/alternator.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_alternator",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Server = ServerConfig{
        Port:        getEnv("PORT", "8080"),
        WebUsername: getEnv("WEB_USERNAME", ""),
        WebPassword: getEnv("WEB_PASSWORD", ""),
    }

    cfg.Upload = UploadConfig{
        MaxBytes: parseInt64(getEnv("UPLOAD_MAX_BYTES", "67108864"), 64<<20),
    }

    cfg.Merge = MergeConfig{
        Concurrency: parseInt(getEnv("MERGE_CONCURRENCY", "4"), 4),
        SpoolDir:    getEnv("SPOOL_DIR", "spool"),
        ArtifactTTL: parseDuration(getEnv("ARTIFACT_TTL", "1h"), time.Hour),
    }

    cfg.Session = SessionConfig{
        TTL: parseDuration(getEnv("SESSION_TTL", "12h"), 12*time.Hour),
    }

    cfg.Store = StoreConfig{
        RedisURL: getEnv("REDIS_URL", ""),
    }

    cfg.Fetch = FetchConfig{
        S3Bucket:    getEnv("AWS_S3_BUCKET", ""),
        HTTPTimeout: parseDuration(getEnv("FETCH_HTTP_TIMEOUT", "30s"), 30*time.Second),
    }

    cfg.Preview = PreviewConfig{
        DPI:     parseInt(getEnv("PREVIEW_DPI", "72"), 72),
        Quality: parseInt(getEnv("PREVIEW_QUALITY", "70"), 70),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseInt64(s string, def int64) int64 {
    if s == "" { return def }
    if n, err := strconv.ParseInt(s, 10, 64); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
