package statuscheck

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates health checks for the dashboard.
type Checker struct {
    redis    RedisPinger
    s3Bucket string
    spoolDir string
}

// Options configures the Checker.
type Options struct {
    Redis    RedisPinger
    S3Bucket string
    SpoolDir string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
    Redis Status `json:"redis"`
    S3    Status `json:"s3"`
    Spool Status `json:"spool"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:    opts.Redis,
        s3Bucket: opts.S3Bucket,
        spoolDir: opts.SpoolDir,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis: c.checkRedis(ctx),
        S3:    c.checkS3(ctx),
        Spool: c.checkSpool(),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: true, Message: "In-memory store"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3Bucket == "" {
        return Status{OK: true, Message: "Remote refs disabled"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    cli := s3.NewFromConfig(cfg)
    if _, err = cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkSpool() Status {
    if c.spoolDir == "" {
        return Status{OK: false, Message: "Spool dir not configured"}
    }
    probe := filepath.Join(c.spoolDir, ".probe")
    if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    _ = os.Remove(probe)
    return Status{OK: true, Message: "Writable"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
