package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Config holds configuration for the worker pool.
type Config struct {
	// Workers is the number of concurrent workers executing database jobs.
	Workers int `mapstructure:"workers" default:"4"`
	// QueueSize is the capacity of the job queue.
	QueueSize int `mapstructure:"queue_size" default:"64"`
}

// Job represents a task to be executed by a worker.
type Job func(ctx context.Context) error

// Pool executes blocking jobs off the caller's loop.
//
// Every statement execution in the gateway goes through a pool worker so the
// game simulation loop never blocks on database I/O.
type Pool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	quit     chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, logger *zap.Logger) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		quit:     make(chan struct{}),
		logger:   logger,
	}
}

// Start starts the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker loop.
func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			if err := job(context.Background()); err != nil {
				// Log and keep the worker alive; a failed job must never
				// take the pool down with it.
				p.logger.Error("worker job failed", zap.Error(err))
			}
		case <-p.quit:
			return
		}
	}
}

// Enqueue adds a job to the queue. It blocks when the queue is full, which
// applies natural backpressure to a caller outrunning the database.
func (p *Pool) Enqueue(job Job) {
	select {
	case p.jobQueue <- job:
	case <-p.quit:
		// Pool is shutting down; drop the job rather than block forever.
		p.logger.Warn("job dropped, pool stopped")
	}
}

// Stop stops the workers and waits for in-flight jobs to finish.
// Jobs still queued but not picked up are discarded.
func (p *Pool) Stop() {
	p.once.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}
