package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"creatorjoy/pkg/logger"
)

// Job is one unit of work; Index is its position in the submitted batch.
type Job[J any] struct {
	Index   int
	Payload J
}

// Result is the outcome of one Job.
type Result[J, R any] struct {
	Job      Job[J]
	Value    R
	Error    error
	Duration time.Duration
}

// Handler processes a single payload.
type Handler[J, R any] func(ctx context.Context, payload J) (R, error)

// WorkerPool runs a fixed number of workers over a job queue.
type WorkerPool[J, R any] struct {
	numWorkers  int
	jobQueue    chan Job[J]
	resultQueue chan Result[J, R]
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	handler     Handler[J, R]
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers workers (at least one). The
// pool stops accepting work when parent is done.
func NewWorkerPool[J, R any](parent context.Context, numWorkers int, handler Handler[J, R], log logger.Logger) *WorkerPool[J, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool[J, R]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job[J], numWorkers*2),
		resultQueue: make(chan Result[J, R], numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		handler:     handler,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool[J, R]) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers to drain it and closes
// the result channel. Results must be consumed concurrently.
func (wp *WorkerPool[J, R]) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job. It fails once the pool's context is done.
func (wp *WorkerPool[J, R]) Submit(job Job[J]) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the result channel
func (wp *WorkerPool[J, R]) Results() <-chan Result[J, R] {
	return wp.resultQueue
}

func (wp *WorkerPool[J, R]) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		result := wp.process(job)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping, context cancelled while sending result", map[string]interface{}{
				"worker_id": id,
			})
			return
		}
	}
}

func (wp *WorkerPool[J, R]) process(job Job[J]) (result Result[J, R]) {
	start := time.Now()
	result.Job = job

	if err := wp.ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker panic: %v", r)
		}
		result.Duration = time.Since(start)
	}()

	result.Value, result.Error = wp.handler(wp.ctx, job.Payload)
	return result
}

// Run processes payloads with numWorkers workers and returns one result per
// payload in input order. It returns after every job has finished.
func Run[J, R any](ctx context.Context, numWorkers int, payloads []J, handler Handler[J, R], log logger.Logger) []Result[J, R] {
	results := make([]Result[J, R], len(payloads))
	if len(payloads) == 0 {
		return results
	}
	if numWorkers > len(payloads) {
		numWorkers = len(payloads)
	}

	pool := NewWorkerPool(ctx, numWorkers, handler, log)
	pool.Start()

	received := make([]bool, len(payloads))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range pool.Results() {
			results[r.Job.Index] = r
			received[r.Job.Index] = true
		}
	}()

	for i, p := range payloads {
		if err := pool.Submit(Job[J]{Index: i, Payload: p}); err != nil {
			for j := i; j < len(payloads); j++ {
				results[j] = Result[J, R]{Job: Job[J]{Index: j, Payload: payloads[j]}, Error: err}
			}
			break
		}
	}

	pool.Stop()
	<-done

	for i, ok := range received {
		if !ok && results[i].Error == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("job %d was not processed", i)
			}
			results[i] = Result[J, R]{Job: Job[J]{Index: i, Payload: payloads[i]}, Error: err}
		}
	}
	return results
}
