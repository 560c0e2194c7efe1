package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// JobStatus represents the current state of a job
type JobStatus int

const (
	StatusQueued JobStatus = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "Queued"
	case StatusProcessing:
		return "Processing"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Job is one unit of background work
type Job struct {
	ID          int
	Name        string
	Run         func(ctx context.Context) error
	Status      JobStatus
	Error       error
	StartedAt   time.Time
	CompletedAt time.Time
}

// Queue runs jobs on a fixed number of worker goroutines. Only queued and
// running jobs are tracked; finished jobs are counted and released.
type Queue struct {
	jobs      chan *Job
	active    map[int]*Job
	nextID    int
	completed int
	failed    int
	mu        sync.RWMutex

	onJobComplete func(job *Job)

	// sendMu keeps Close from closing jobs during a send
	sendMu sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue starts workers that process jobs until Close is called
func NewQueue(ctx context.Context, workers, capacity int) *Queue {
	if workers < 1 {
		workers = 1
	}
	queueCtx, cancel := context.WithCancel(ctx)

	q := &Queue{
		jobs:    make(chan *Job, capacity),
		active:  make(map[int]*Job),
		nextID:  1,
		ctx:     queueCtx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// OnJobComplete registers a callback for finished jobs, successful or not
func (q *Queue) OnJobComplete(fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onJobComplete = fn
}

// Enqueue adds a job. It blocks while the queue is full.
func (q *Queue) Enqueue(name string, run func(ctx context.Context) error) (*Job, error) {
	q.sendMu.RLock()
	defer q.sendMu.RUnlock()
	if q.closed {
		return nil, fmt.Errorf("queue is shutting down")
	}

	q.mu.Lock()
	job := &Job{ID: q.nextID, Name: name, Run: run, Status: StatusQueued}
	q.nextID++
	q.active[job.ID] = job
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return job, nil
	case <-q.ctx.Done():
		q.finish(job, fmt.Errorf("queue is shutting down"))
		return job, job.Error
	}
}

// Status returns the queue statistics
func (q *Queue) Status() (queued, processing, completed, failed int) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, job := range q.active {
		switch job.Status {
		case StatusQueued:
			queued++
		case StatusProcessing:
			processing++
		}
	}
	return queued, processing, q.completed, q.failed
}

// Close stops accepting jobs, lets the workers drain the queue and waits for them
func (q *Queue) Close() {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.sendMu.Unlock()

	q.wg.Wait()
	q.cancel()
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		q.mu.Lock()
		job.Status = StatusProcessing
		job.StartedAt = time.Now()
		q.mu.Unlock()

		err := job.Run(q.ctx)
		if err != nil {
			log.WithError(err).WithField("job", job.Name).Error("Job failed")
		}
		q.finish(job, err)
	}
}

func (q *Queue) finish(job *Job, err error) {
	q.mu.Lock()
	job.Error = err
	job.CompletedAt = time.Now()
	if err != nil {
		job.Status = StatusFailed
		q.failed++
	} else {
		job.Status = StatusCompleted
		q.completed++
	}
	callback := q.onJobComplete
	q.mu.Unlock()

	if callback != nil {
		callback(job)
	}

	q.mu.Lock()
	delete(q.active, job.ID)
	q.mu.Unlock()
}
