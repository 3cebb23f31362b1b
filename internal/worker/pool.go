// Package worker implements the job pipeline's dispatch loop (spec C5,
// "Worker Pool"): a single poller that pulls queued jobs off the store and
// runs each one under a bounded-concurrency errgroup, the same
// singleton-manager-plus-active-job-map shape as the teacher's
// resource_manager.go ResourceManager, generalized from resource
// accounting to job dispatch.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clipfinder/clipfinder/internal/store"
)

// Runner executes one job end to end. The pool does not know how a job is
// processed; internal/pipeline supplies this.
type Runner interface {
	Run(ctx context.Context, job store.Job)
}

// Pool polls the job store for queued work and dispatches it to a
// bounded-concurrency errgroup, never exceeding MaxConcurrent simultaneous
// job runs, and never dispatching two runs for the same fingerprint at
// once.
type Pool struct {
	Store          *store.Store
	Runner         Runner
	MaxConcurrent  int
	PollInterval   time.Duration
	JobWallClock   time.Duration

	mu      sync.Mutex
	running map[string]struct{} // fingerprints currently dispatched

	wakeUp chan struct{} // immediate re-poll signal on job completion
}

func New(st *store.Store, runner Runner, maxConcurrent int, pollInterval, jobWallClock time.Duration) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Pool{
		Store:         st,
		Runner:        runner,
		MaxConcurrent: maxConcurrent,
		PollInterval:  pollInterval,
		JobWallClock:  jobWallClock,
		running:       make(map[string]struct{}),
		wakeUp:        make(chan struct{}, 1),
	}
}

// Run blocks, polling for queued jobs until ctx is cancelled. Dispatch is
// bounded by an errgroup.SetLimit so at most MaxConcurrent jobs run
// concurrently; completing a job nudges the loop to re-poll immediately
// instead of waiting out the full idle interval.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(p.MaxConcurrent)

	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("worker pool: shutdown signal received, waiting for in-flight jobs")
			return g.Wait()
		case <-ticker.C:
			p.dispatchEligible(gctx, g)
		case <-p.wakeUp:
			p.dispatchEligible(gctx, g)
		}
	}
}

func (p *Pool) dispatchEligible(ctx context.Context, g *errgroup.Group) {
	free := p.freeSlots()
	if free <= 0 {
		return
	}
	jobs, err := p.Store.ListQueuedJobs(ctx, free)
	if err != nil {
		log.Printf("worker pool: list queued jobs: %v", err)
		return
	}
	for _, job := range jobs {
		if !p.claim(job.Fingerprint) {
			continue
		}
		job := job
		g.Go(func() error {
			defer p.release(job.Fingerprint)
			runCtx := ctx
			var cancel context.CancelFunc
			if p.JobWallClock > 0 {
				runCtx, cancel = context.WithTimeout(ctx, p.JobWallClock)
				defer cancel()
			}
			p.Runner.Run(runCtx, job)
			select {
			case p.wakeUp <- struct{}{}:
			default:
			}
			return nil
		})
	}
}

func (p *Pool) freeSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	free := p.MaxConcurrent - len(p.running)
	if free < 0 {
		return 0
	}
	return free
}

// claim reports whether fingerprint was not already dispatched, and if so
// marks it dispatched. This is what keeps two runs of the same job from
// ever racing each other.
func (p *Pool) claim(fingerprint string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.running[fingerprint]; ok {
		return false
	}
	if len(p.running) >= p.MaxConcurrent {
		return false
	}
	p.running[fingerprint] = struct{}{}
	return true
}

func (p *Pool) release(fingerprint string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.running, fingerprint)
}
