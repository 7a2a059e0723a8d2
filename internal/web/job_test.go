package web

import (
	"strings"
	"testing"
	"time"

	"ytgrab/internal/config"
	"ytgrab/internal/metadata"
	"ytgrab/internal/review"
)

func TestCleanup(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()

	// Create an old completed job (2 hours ago)
	old := jm.CreateJob("https://example.com/old", cfg)
	jm.UpdateJob(old.ID, func(j *Job) {
		j.Status = StatusCompleted
	})
	// Backdate CompletedAt
	jm.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	jm.jobs[old.ID].CompletedAt = &past
	jm.mu.Unlock()

	// Create a recent completed job (5 minutes ago)
	recent := jm.CreateJob("https://example.com/recent", cfg)
	jm.UpdateJob(recent.ID, func(j *Job) {
		j.Status = StatusCompleted
	})

	// Create a running job (should never be cleaned)
	running := jm.CreateJob("https://example.com/running", cfg)
	jm.UpdateJob(running.ID, func(j *Job) {
		j.Status = StatusRunning
	})

	jm.cleanup()

	if _, err := jm.GetJob(old.ID); err == nil {
		t.Error("old completed job should have been cleaned up")
	}
	if _, err := jm.GetJob(recent.ID); err != nil {
		t.Error("recent completed job should NOT have been cleaned up")
	}
	if _, err := jm.GetJob(running.ID); err != nil {
		t.Error("running job should NOT have been cleaned up")
	}
}

func TestCreateJobUniqueIDs(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job := jm.CreateJob("https://example.com", cfg)
		if ids[job.ID] {
			t.Fatalf("duplicate job ID: %s", job.ID)
		}
		ids[job.ID] = true
	}
}

func TestJobIDFormat(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()

	job := jm.CreateJob("https://example.com", cfg)
	if !strings.HasPrefix(job.ID, "job_") {
		t.Errorf("job ID should start with 'job_', got %q", job.ID)
	}
}

func TestUpdateJobTimestamps(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()
	job := jm.CreateJob("https://example.com", cfg)

	// Pending → Running should set StartedAt
	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})
	j, _ := jm.GetJob(job.ID)
	if j.StartedAt == nil {
		t.Error("StartedAt should be set when status changes to running")
	}

	// Running → Completed should set CompletedAt
	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
	})
	j, _ = jm.GetJob(job.ID)
	if j.CompletedAt == nil {
		t.Error("CompletedAt should be set when status changes to completed")
	}
}

func TestUpdateJobNotFound(t *testing.T) {
	jm := NewJobManager()
	err := jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("UpdateJob should return error for nonexistent job")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()
	job := jm.CreateJob("https://example.com", cfg)

	ch := jm.Subscribe(job.ID)

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})

	select {
	case update := <-ch:
		if update.Status != StatusRunning {
			t.Errorf("expected status running, got %s", update.Status)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for update")
	}

	jm.Unsubscribe(job.ID, ch)
}

func TestRespondReviewRoutesToCoordinator(t *testing.T) {
	jm := NewJobManager()
	cfg := config.DefaultConfig()
	job := jm.CreateJob("https://example.com", cfg)

	// Presenter that publishes the request onto the job, like the
	// server's jobPresenter, but answered via RespondReview below.
	coord := review.NewCoordinator(nil)
	requestID := make(chan string, 1)
	coord.SetPresenter(presenterFunc(func(req review.Request) {
		jm.UpdateJob(job.ID, func(j *Job) {
			j.Status = StatusReviewing
			j.Review = &ReviewPayload{RequestID: req.ID}
		})
		requestID <- req.ID
	}))

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.coordinator = coord
	})

	candidates := []metadata.TrackRecord{
		{Title: "A", Artist: "X"},
		{Title: "B", Artist: "Y"},
	}

	done := make(chan int, 1)
	go func() {
		idx, err := coord.Ask("raw", "parsed", candidates)
		if err != nil {
			t.Errorf("Ask: %v", err)
		}
		done <- idx
	}()

	var reqID string
	select {
	case reqID = <-requestID:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for review request")
	}

	if jm.RespondReview(job.ID, "rev_bogus", 1) {
		t.Error("stale request id should be rejected")
	}
	if !jm.RespondReview(job.ID, reqID, 1) {
		t.Fatal("valid response was rejected")
	}

	select {
	case idx := <-done:
		if idx != 1 {
			t.Errorf("chosen index = %d, want 1", idx)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Ask to return")
	}

	j, _ := jm.GetJob(job.ID)
	if j.Review != nil {
		t.Error("review payload should be cleared after a valid response")
	}
	if j.Status != StatusRunning {
		t.Errorf("status = %s, want running", j.Status)
	}
}

func TestRespondReviewUnknownJob(t *testing.T) {
	jm := NewJobManager()
	if jm.RespondReview("job_missing", "rev_x", 0) {
		t.Error("unknown job should be rejected")
	}
}

type presenterFunc func(review.Request)

func (f presenterFunc) Present(req review.Request) { f(req) }
