package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestQueueRunsAllJobs(t *testing.T) {
	q := NewQueue(context.Background(), 3, 10)

	var ran int32
	var jobs []*Job
	for i := 0; i < 20; i++ {
		job, err := q.Enqueue("count", func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		jobs = append(jobs, job)
	}
	q.Close()

	if ran != 20 {
		t.Errorf("Expected 20 jobs to run, got %d", ran)
	}
	for _, job := range jobs {
		if job.Status != StatusCompleted {
			t.Errorf("Job %d: expected Completed, got %s", job.ID, job.Status)
		}
	}
}

func TestQueueReleasesFinishedJobs(t *testing.T) {
	q := NewQueue(context.Background(), 2, 8)

	for i := 0; i < 1000; i++ {
		if _, err := q.Enqueue("noop", func(context.Context) error { return nil }); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	q.Close()

	if n := len(q.active); n != 0 {
		t.Errorf("Expected no tracked jobs, got %d", n)
	}

	queued, processing, completed, failed := q.Status()
	if queued != 0 || processing != 0 || completed != 1000 || failed != 0 {
		t.Errorf("Unexpected status %d/%d/%d/%d", queued, processing, completed, failed)
	}
}

func TestQueueTracksRunningJob(t *testing.T) {
	q := NewQueue(context.Background(), 1, 1)
	defer q.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	job, err := q.Enqueue("block", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	<-started
	q.mu.RLock()
	_, tracked := q.active[job.ID]
	q.mu.RUnlock()
	if !tracked {
		t.Error("Expected running job to be tracked")
	}
	if _, processing, _, _ := q.Status(); processing != 1 {
		t.Errorf("Expected 1 processing job, got %d", processing)
	}
	close(release)
}

func TestQueueFailedJobs(t *testing.T) {
	q := NewQueue(context.Background(), 1, 1)

	var mu sync.Mutex
	var finished []*Job
	q.OnJobComplete(func(job *Job) {
		mu.Lock()
		defer mu.Unlock()
		finished = append(finished, job)
	})

	boom := errors.New("boom")
	q.Enqueue("fail", func(context.Context) error { return boom })
	q.Enqueue("ok", func(context.Context) error { return nil })
	q.Close()

	queued, processing, completed, failed := q.Status()
	if queued != 0 || processing != 0 || completed != 1 || failed != 1 {
		t.Errorf("Unexpected status %d/%d/%d/%d", queued, processing, completed, failed)
	}
	if len(finished) != 2 {
		t.Fatalf("Expected 2 callbacks, got %d", len(finished))
	}
	if !errors.Is(finished[0].Error, boom) {
		t.Errorf("Expected boom, got %v", finished[0].Error)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(context.Background(), 1, 1)
	q.Close()
	q.Close()

	if _, err := q.Enqueue("late", func(context.Context) error { return nil }); err == nil {
		t.Error("Expected an error after Close")
	}
}

func TestJobStatusString(t *testing.T) {
	tests := map[JobStatus]string{
		StatusQueued:     "Queued",
		StatusProcessing: "Processing",
		StatusCompleted:  "Completed",
		StatusFailed:     "Failed",
		JobStatus(42):    "Unknown",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("String() = %s, want %s", got, want)
		}
	}
}
