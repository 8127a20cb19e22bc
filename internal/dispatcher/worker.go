package dispatcher

import (
    "context"
    "sync"

    "github.com/rs/zerolog/log"
)

// Job is one unit of merge work. Jobs carry their own error handling; the
// pool only schedules them.
type Job func()

type Config struct {
    Concurrency int
}

// Pool runs merge jobs on a bounded set of workers. Submission never blocks:
// a saturated pool rejects, matching the trigger-level rejection contract.
type Pool struct {
    cfg  Config
    jobs chan Job
    stop chan struct{}
    wg   sync.WaitGroup
}

func New(cfg Config) *Pool {
    if cfg.Concurrency <= 0 { cfg.Concurrency = 4 }
    return &Pool{
        cfg:  cfg,
        jobs: make(chan Job, cfg.Concurrency*2),
        stop: make(chan struct{}),
    }
}

func (p *Pool) Start() {
    for i := 0; i < p.cfg.Concurrency; i++ {
        p.wg.Add(1)
        go p.loop(i)
    }
}

// Submit offers a job to the pool. Returns false when the pool is saturated
// or stopping; the caller surfaces that as a rejected trigger.
func (p *Pool) Submit(job Job) bool {
    select {
    case <-p.stop:
        return false
    default:
    }
    select {
    case p.jobs <- job:
        return true
    default:
        return false
    }
}

// Stop drains nothing: queued jobs are abandoned, running jobs finish.
// Waits for workers until ctx expires.
func (p *Pool) Stop(ctx context.Context) error {
    close(p.stop)
    done := make(chan struct{})
    go func() {
        p.wg.Wait()
        close(done)
    }()
    select {
    case <-done:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *Pool) loop(id int) {
    defer p.wg.Done()
    log.Info().Int("worker", id).Msg("merge worker started")
    for {
        select {
        case <-p.stop:
            log.Info().Int("worker", id).Msg("merge worker stopped")
            return
        case job := <-p.jobs:
            job()
        }
    }
}
