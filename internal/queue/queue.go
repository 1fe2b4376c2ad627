// Package queue provides a bounded FIFO admission controller for outbound
// provider requests. At most maxConcurrent work items run at once and the
// start of each item is spaced by a minimum interval, which keeps scraping
// clients under provider rate limits.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("request queue closed")

// Task is one unit of work. The context passed in is the submitter's context.
type Task func(ctx context.Context) (any, error)

// Result carries a completed task's outcome.
type Result struct {
	Value any
	Err   error
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Active    int   `json:"active"`
	Pending   int   `json:"pending"`
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type job struct {
	ctx  context.Context
	task Task
	done chan Result
}

// Queue admits pending work in FIFO order, gated by a concurrency semaphore
// and a start-interval limiter. Failure of one item never blocks admission
// of the next.
type Queue struct {
	pending chan *job
	sem     chan struct{}
	limiter *rate.Limiter
	quit    chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	active    int
	queued    int
	started   int64
	completed int64
	failed    int64
}

// New creates a queue running at most maxConcurrent items with item starts
// spaced at least minStartInterval apart. Values below 1 / zero disable the
// respective limit sensibly (concurrency floor of 1, no start spacing).
func New(maxConcurrent int, minStartInterval time.Duration) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	limit := rate.Inf
	if minStartInterval > 0 {
		limit = rate.Every(minStartInterval)
	}

	q := &Queue{
		pending: make(chan *job, 1024),
		sem:     make(chan struct{}, maxConcurrent),
		limiter: rate.NewLimiter(limit, 1),
		quit:    make(chan struct{}),
	}

	q.wg.Add(1)
	go q.dispatch()

	return q
}

// Submit enqueues a task and blocks until it completes or ctx is cancelled
// while the task is still waiting for admission. Tasks waiting at the same
// time start in submission order.
func (q *Queue) Submit(ctx context.Context, task Task) (any, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrClosed
	}
	q.queued++
	q.mu.Unlock()

	j := &job{ctx: ctx, task: task, done: make(chan Result, 1)}

	select {
	case q.pending <- j:
	case <-q.quit:
		q.decQueued()
		return nil, ErrClosed
	case <-ctx.Done():
		q.decQueued()
		return nil, ctx.Err()
	}

	select {
	case res := <-j.done:
		return res.Value, res.Err
	case <-ctx.Done():
		// The dispatcher checks j.ctx before starting, so a cancelled job
		// that has not started yet is dropped there.
		return nil, ctx.Err()
	}
}

// dispatch pops jobs in FIFO order, waiting for a concurrency slot and the
// start-interval limiter before launching each one.
func (q *Queue) dispatch() {
	defer q.wg.Done()

	for {
		select {
		case <-q.quit:
			q.drain()
			return
		case j := <-q.pending:
			if j.ctx.Err() != nil {
				q.decQueued()
				j.done <- Result{Err: j.ctx.Err()}
				continue
			}

			select {
			case q.sem <- struct{}{}:
			case <-q.quit:
				j.done <- Result{Err: ErrClosed}
				q.drain()
				return
			}

			if err := q.limiter.Wait(j.ctx); err != nil {
				<-q.sem
				q.decQueued()
				j.done <- Result{Err: err}
				continue
			}

			q.markStarted()

			q.wg.Add(1)
			go func(j *job) {
				defer q.wg.Done()
				defer func() { <-q.sem }()

				value, err := j.task(j.ctx)
				q.markDone(err)
				j.done <- Result{Value: value, Err: err}
			}(j)
		}
	}
}

// drain fails any jobs still pending at shutdown.
func (q *Queue) drain() {
	for {
		select {
		case j := <-q.pending:
			q.decQueued()
			j.done <- Result{Err: ErrClosed}
		default:
			return
		}
	}
}

// Close stops admission. In-flight tasks finish; pending tasks fail with
// ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.quit)
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Active:    q.active,
		Pending:   q.queued - q.active,
		Started:   q.started,
		Completed: q.completed,
		Failed:    q.failed,
	}
}

func (q *Queue) decQueued() {
	q.mu.Lock()
	q.queued--
	q.mu.Unlock()
}

func (q *Queue) markStarted() {
	q.mu.Lock()
	q.active++
	q.started++
	q.mu.Unlock()
}

func (q *Queue) markDone(err error) {
	q.mu.Lock()
	q.active--
	q.queued--
	q.completed++
	if err != nil {
		q.failed++
	}
	q.mu.Unlock()
}
