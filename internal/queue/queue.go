// Package queue runs persistence writes off the validation path.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("write queue full")
	ErrQueueClosed = errors.New("write queue closed")
)

// Job is one write. Name labels it in logs.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue is a bounded FIFO drained by a fixed pool of workers. With one
// worker, jobs run in enqueue order.
type Queue struct {
	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts workers draining a queue of the given capacity.
func New(size, workers int) *Queue {
	if size <= 0 {
		size = 1
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{jobs: make(chan Job, size), ctx: ctx, cancel: cancel}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue hands a job to the workers without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		metrics.SetQueueDepth(len(q.jobs))
		return nil
	default:
		metrics.IncQueueDropped()
		return ErrQueueFull
	}
}

// Len is the number of jobs waiting.
func (q *Queue) Len() int { return len(q.jobs) }

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		metrics.SetQueueDepth(len(q.jobs))
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncQueueJob("panic")
			logger.WithFields(logrus.Fields{"component": "queue", "job": job.Name, "panic": r}).Error("write job panicked")
		}
	}()
	if err := job.Run(q.ctx); err != nil {
		metrics.IncQueueJob("failure")
		logger.WithFields(logrus.Fields{"component": "queue", "job": job.Name, "error": err.Error()}).Error("write job failed")
		return
	}
	metrics.IncQueueJob("success")
}

// Stop refuses new jobs and waits until everything already enqueued has
// run. If ctx ends first, the context handed to remaining jobs is
// cancelled and Stop returns ctx's error once the workers exit.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
