package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Work is one bounded unit of generation work, typically a provider call with
// bound arguments.
type Work func() ([]byte, error)

var (
	// ErrShuttingDown is returned by Submit after Shutdown has begun.
	ErrShuttingDown = errors.New("dispatcher is shutting down")
	// ErrQueueFull is returned when the submission queue has no room.
	ErrQueueFull = errors.New("dispatcher queue is full")
	// ErrNotFound is returned by Await for an unknown or already-delivered job.
	ErrNotFound = errors.New("job not found")
	// ErrTimeout is returned by Await when the wait budget elapses first.
	ErrTimeout = errors.New("generation timed out")
)

const (
	// DefaultMaxWorkers caps concurrent in-flight provider calls.
	DefaultMaxWorkers = 5
	// DefaultAwaitTimeout is the overall wait budget for one job result.
	DefaultAwaitTimeout = 120 * time.Second

	defaultPollInterval = 500 * time.Millisecond
	queueCapacity       = 1024
)

type job struct {
	id          string
	work        Work
	submittedAt time.Time
}

// result holds one job's outcome. A job is pending until done flips; the
// entry is removed from the map when the result is delivered or abandoned.
type result struct {
	done        bool
	payload     []byte
	err         error
	elapsed     time.Duration
	completedAt time.Time
}

// Dispatcher runs submitted jobs on a fixed pool of workers. It guarantees
// bounded concurrency, at-most-once result delivery and non-crashing workers;
// retries and fallback are the caller's policy, never the Dispatcher's.
type Dispatcher struct {
	logger zerolog.Logger
	queue  chan job
	stop   chan struct{}
	wg     sync.WaitGroup
	poll   time.Duration

	mu      sync.Mutex
	results map[string]*result
	closed  bool

	stopOnce sync.Once
}

// New starts maxWorkers persistent workers (default 5 when non-positive).
func New(maxWorkers int, logger zerolog.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	d := &Dispatcher{
		logger:  logger,
		queue:   make(chan job, queueCapacity),
		stop:    make(chan struct{}),
		poll:    defaultPollInterval,
		results: make(map[string]*result),
	}
	for i := 0; i < maxWorkers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Info().Int("workers", maxWorkers).Msg("generation dispatcher started")
	return d
}

// Submit enqueues work and returns its job id without blocking. Jobs are
// picked up first-in-first-out, but completion order across workers is not
// guaranteed to match submission order.
func (d *Dispatcher) Submit(work Work) (string, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrShuttingDown
	}
	id := uuid.NewString()
	d.results[id] = &result{}
	d.mu.Unlock()

	select {
	case d.queue <- job{id: id, work: work, submittedAt: time.Now()}:
		return id, nil
	default:
		d.mu.Lock()
		delete(d.results, id)
		d.mu.Unlock()
		return "", ErrQueueFull
	}
}

// Await blocks until the job reaches a terminal state or the timeout elapses,
// polling the result store without holding any lock across the wait. The
// entry is deleted upon delivery: a second Await for the same id reports
// ErrNotFound, never a stale result. On timeout the placeholder is deleted;
// the worker, if still running, finishes into a vanished slot and its write
// is discarded.
func (d *Dispatcher) Await(jobID string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultAwaitTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		d.mu.Lock()
		res, ok := d.results[jobID]
		if !ok {
			d.mu.Unlock()
			return nil, ErrNotFound
		}
		if res.done {
			delete(d.results, jobID)
			d.mu.Unlock()
			if res.err != nil {
				return nil, res.err
			}
			return res.payload, nil
		}
		d.mu.Unlock()

		if !time.Now().Before(deadline) {
			d.mu.Lock()
			delete(d.results, jobID)
			d.mu.Unlock()
			return nil, ErrTimeout
		}
		time.Sleep(d.poll)
	}
}

// QueueDepth reports how many jobs are waiting for a worker.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// Shutdown stops accepting submissions, signals all workers and waits for
// them within the context's deadline. Safe to call more than once and during
// active traffic; in-flight jobs finish or are abandoned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.stop)
		d.logger.Info().Msg("generation dispatcher shutting down")
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case j := <-d.queue:
			d.run(n, j)
		}
	}
}

func (d *Dispatcher) run(n int, j job) {
	start := time.Now()
	payload, err := runGuarded(j.work)
	elapsed := time.Since(start)

	d.mu.Lock()
	res, ok := d.results[j.id]
	if ok {
		res.done = true
		res.payload = payload
		res.err = err
		res.elapsed = elapsed
		res.completedAt = time.Now()
	}
	d.mu.Unlock()

	switch {
	case !ok:
		d.logger.Debug().Int("worker", n).Str("job_id", j.id).Dur("elapsed", elapsed).
			Msg("discarding result for abandoned job")
	case err != nil:
		d.logger.Warn().Int("worker", n).Str("job_id", j.id).Dur("elapsed", elapsed).Err(err).
			Msg("job failed")
	default:
		d.logger.Info().Int("worker", n).Str("job_id", j.id).Dur("elapsed", elapsed).
			Msg("job completed")
	}
}

// runGuarded executes work and converts a panic into a failed result so a
// misbehaving job can never take its worker down.
func runGuarded(work Work) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return work()
}
