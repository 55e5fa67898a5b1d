package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultWorkers bounds concurrent model fits to protect memory.
const DefaultWorkers = 6

// Pool fans work out over a bounded number of goroutines. Per-item results
// come back in input order; per-item errors are collected, never fatal to the
// batch.
type Pool struct {
	workers int
	limiter *rate.Limiter // optional request-per-second ceiling
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRateLimit caps the rate at which items are dispatched.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(p *Pool) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// New creates a pool with the given options.
func New(opts ...Option) *Pool {
	p := &Pool{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Map runs fn once per index in [0, n). Results and errors are indexed by the
// input position. Items are skipped (with ctx.Err recorded) once the context
// is cancelled; completed results are kept.
func Map[R any](ctx context.Context, p *Pool, n int, fn func(ctx context.Context, i int) (R, error)) ([]R, []error) {
	results := make([]R, n)
	errs := make([]error, n)

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				if p.limiter != nil {
					if err := p.limiter.Wait(ctx); err != nil {
						errs[i] = err
						continue
					}
				}
				results[i], errs[i] = fn(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, errs
}
