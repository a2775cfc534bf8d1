package chainbean

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler bounds the request pressure on one remote service: at most
// maxConcurrent tasks in flight, and at least minTime between two dispatches.
// Tasks are dispatched in submission order. Each remote service gets its own
// instance, constructed once and injected into the client that talks to it.
type Scheduler struct {
	queue   chan func()
	sem     chan struct{}
	limiter *rate.Limiter
}

// NewScheduler creates a scheduler and starts its dispatcher.
// A minTime of zero disables spacing.
func NewScheduler(maxConcurrent int, minTime time.Duration) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if minTime > 0 {
		limit = rate.Every(minTime)
	}
	s := &Scheduler{
		queue:   make(chan func(), 128),
		sem:     make(chan struct{}, maxConcurrent),
		limiter: rate.NewLimiter(limit, 1),
	}
	go s.dispatch()
	return s
}

// dispatch drains the submission queue. A single goroutine takes both the
// rate token and a concurrency slot before launching each task, so dispatch
// order always follows submission order.
func (s *Scheduler) dispatch() {
	for task := range s.queue {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return
		}
		s.sem <- struct{}{}
		go func() {
			defer func() { <-s.sem }()
			task()
		}()
	}
}

// Close stops the dispatcher. Tasks already submitted still run.
func (s *Scheduler) Close() { close(s.queue) }

// Future holds the eventual result of a scheduled task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Wait blocks until the task has completed and returns its result. A task
// failure resolves the future with an error; it is never retried here.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}

// Schedule submits fn to the scheduler and returns a future for its result.
func Schedule[T any](ctx context.Context, s *Scheduler, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	s.queue <- func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.val, f.err = fn(ctx)
	}
	return f
}
