package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrQueueFull is returned by Submit when the queue has no room.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("pipeline stopped")

// Options configures an Orchestrator.
type Options struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
	// CleanupInterval defaults to five minutes.
	CleanupInterval time.Duration
}

// Orchestrator manages the deck job pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	builder *Builder
	log     *slog.Logger
	opts    Options

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(b *Builder, opts Options, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 100
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:    NewJobStore(opts.JobTTL),
		queue:   make(chan *Job, opts.MaxQueueSize),
		builder: b,
		log:     log,
		opts:    opts,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.builder, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing. Output goes to a directory named
// after the job so concurrent jobs on one topic do not collide.
func (o *Orchestrator) Submit(req Request) (*Job, error) {
	job := NewJob(req)
	if job.req.OutputDir == "" && o.builder.OutputDir != "" {
		job.req.OutputDir = filepath.Join(o.builder.OutputDir, job.ID)
	}
	return job, o.enqueue(job)
}

func (o *Orchestrator) enqueue(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail(StatusFailed, "queue full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.opts.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Builder returns the builder jobs run with.
func (o *Orchestrator) Builder() *Builder {
	return o.builder
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Jobs returns snapshots of every tracked job, oldest first.
func (o *Orchestrator) Jobs() []JobSnapshot {
	jobs := o.jobs.List()
	snaps := make([]JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snaps = append(snaps, job.Snapshot())
	}
	return snaps
}

// Remove forgets a finished job and deletes its rendered files. It returns
// false for unknown jobs and an error for jobs still in progress.
func (o *Orchestrator) Remove(id string) (bool, error) {
	job := o.jobs.Get(id)
	if job == nil {
		return false, nil
	}
	if !job.Snapshot().Status.Terminal() {
		return true, fmt.Errorf("job %s is still %s", id, job.Snapshot().Status)
	}
	o.jobs.Delete(id)
	o.removeOutput(job)
	return true, nil
}

// cleanup evicts expired jobs and removes their rendered files.
func (o *Orchestrator) cleanup() {
	for _, job := range o.jobs.Cleanup() {
		o.removeOutput(job)
	}
}

// removeOutput deletes a job's private output directory.
func (o *Orchestrator) removeOutput(job *Job) {
	dir := job.Request().OutputDir
	if o.builder.OutputDir == "" || filepath.Dir(dir) != filepath.Clean(o.builder.OutputDir) {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		o.log.Warn("remove job output", "job_id", job.ID, "error", err)
	}
}
