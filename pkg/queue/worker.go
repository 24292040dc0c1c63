package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"CourtEdge/pkg/logger"
)

// WorkerQueue runs jobs on a fixed pool of goroutines over a bounded channel.
// Failed messages are retried after RetryDelay up to RetryLimit times, then dropped.
type WorkerQueue struct {
	logger *logger.Logger
	config QueueConfig

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	stopped bool

	msgs    chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	halt    chan struct{}
	seq     atomic.Uint64

	processed atomic.Int64
	dropped   atomic.Int64
}

func NewWorkerQueue(lgr *logger.Logger, config QueueConfig, jobs ...Job) *WorkerQueue {
	if lgr == nil {
		lgr = logger.Nop()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 128
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	q := &WorkerQueue{
		logger: lgr,
		config: config,
		jobs:   make(map[string]Job),
		msgs:   make(chan Message, config.QueueSize),
		halt:   make(chan struct{}),
	}
	for _, j := range jobs {
		q.RegisterJob(j)
	}
	return q
}

// RegisterJob registers a job for its message type. The first registration wins.
func (q *WorkerQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
}

// Start launches the workers. A stopped queue cannot be restarted.
func (q *WorkerQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return fmt.Errorf("queue already started")
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.running = true
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info("worker queue started",
		logger.Int("workers", q.config.Workers),
		logger.Int("size", q.config.QueueSize))
	return nil
}

// Enqueue hands a message to the workers without blocking.
func (q *WorkerQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrQueueNotRunning
	}
	if _, ok := q.jobs[msgType]; !ok {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}
	msg := Message{
		ID:        strconv.FormatUint(q.seq.Add(1), 10),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case q.msgs <- msg:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stop stops accepting messages, lets workers drain what is queued and waits
// until they finish or ctx expires. Pending retries are abandoned.
func (q *WorkerQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.stopped = true
	q.mu.Unlock()

	// Enqueue and retries check running under the lock, so nothing sends after this point.
	close(q.halt)
	q.retries.Wait()
	close(q.msgs)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		q.cancel()
		q.logger.Info("worker queue stopped",
			logger.Int64("processed", q.processed.Load()),
			logger.Int64("dropped", q.dropped.Load()))
		return nil
	}
}

// Stats reports processed and dropped message counts.
func (q *WorkerQueue) Stats() (processed, dropped int64) {
	return q.processed.Load(), q.dropped.Load()
}

func (q *WorkerQueue) worker(id int) {
	defer q.wg.Done()
	for msg := range q.msgs {
		q.process(msg)
	}
	q.logger.Debug("queue worker stopped", logger.Int("worker_id", id))
}

func (q *WorkerQueue) process(msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()

	msg.Attempts++
	start := time.Now()
	err := job.Handle(q.ctx, msg.Payload)
	if err == nil {
		q.processed.Add(1)
		return
	}
	if errors.Is(err, context.Canceled) {
		q.dropped.Add(1)
		return
	}

	q.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts),
		logger.Duration("elapsed", time.Since(start)),
		logger.Error(err))

	if msg.Attempts > q.config.RetryLimit {
		q.dropped.Add(1)
		q.logger.Error("max retries reached",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()))
		return
	}
	q.scheduleRetry(msg)
}

func (q *WorkerQueue) scheduleRetry(msg Message) {
	q.mu.RLock()
	if !q.running {
		q.mu.RUnlock()
		q.dropped.Add(1)
		return
	}
	q.retries.Add(1)
	q.mu.RUnlock()

	go func() {
		defer q.retries.Done()
		t := time.NewTimer(q.config.RetryDelay)
		defer t.Stop()
		select {
		case <-q.halt:
			q.dropped.Add(1)
			return
		case <-t.C:
		}

		q.mu.RLock()
		defer q.mu.RUnlock()
		if !q.running {
			q.dropped.Add(1)
			return
		}
		select {
		case q.msgs <- msg:
		default:
			q.dropped.Add(1)
		}
	}()
}
