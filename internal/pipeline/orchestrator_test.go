package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/dgallion1/deckgest/internal/source"
	"github.com/dgallion1/deckgest/internal/source/mocks"
)

func waitTerminal(t *testing.T, o *Orchestrator, id string) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := o.GetJob(id).Snapshot(); snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return JobSnapshot{}
}

func TestOrchestratorProcessesJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().Fetch(gomock.Any(), "Go").Return(source.FoundResult("Go", goBlob), nil)
	p.EXPECT().Fetch(gomock.Any(), "Mercury").Return(source.AmbiguousResult([]string{"Mercury (planet)"}), nil)

	b := newBuilder(t, source.Registry{"wiki": p})
	o := NewOrchestrator(b, Options{WorkerCount: 2, MaxQueueSize: 4}, slog.Default())
	o.Start(context.Background())
	defer o.Stop()

	ok, err := o.Submit(Request{Topic: "Go", Source: "wiki", Format: "docx"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	amb, err := o.Submit(Request{Topic: "Mercury", Source: "wiki"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := waitTerminal(t, o, ok.ID)
	if snap.Status != StatusCompleted || snap.SlideCount != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	path, ready := o.GetJob(ok.ID).File()
	if !ready {
		t.Fatal("file should be ready")
	}
	if filepath.Dir(path) != filepath.Join(b.OutputDir, ok.ID) {
		t.Errorf("output should live in a per-job directory, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("rendered file missing: %v", err)
	}

	snap = waitTerminal(t, o, amb.ID)
	if snap.Status != StatusAmbiguous || len(snap.Options) != 1 || snap.Phase != string(StatusFetching) {
		t.Errorf("unexpected ambiguous snapshot: %+v", snap)
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	b := newBuilder(t, source.Registry{})
	o := NewOrchestrator(b, Options{WorkerCount: 1, MaxQueueSize: 1}, slog.Default())

	if _, err := o.Submit(Request{Topic: "a"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job, err := o.Submit(Request{Topic: "b"})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("rejected job should be failed")
	}
	if o.QueueDepth() != 1 {
		t.Errorf("QueueDepth() = %d", o.QueueDepth())
	}

	o.Stop()
	o.Stop()
	if _, err := o.Submit(Request{Topic: "c"}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestratorCleanupRemovesOutput(t *testing.T) {
	b := newBuilder(t, source.Registry{})
	o := NewOrchestrator(b, Options{JobTTL: time.Millisecond}, slog.Default())

	job := NewJob(Request{Topic: "Go"})
	job.req.OutputDir = filepath.Join(b.OutputDir, job.ID)
	if err := os.MkdirAll(job.req.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	job.Fail(StatusFailed, "boom")
	o.jobs.Put(job)
	time.Sleep(5 * time.Millisecond)

	o.cleanup()
	if o.GetJob(job.ID) != nil {
		t.Error("expired job should be evicted")
	}
	if _, err := os.Stat(job.req.OutputDir); !os.IsNotExist(err) {
		t.Errorf("expired job output should be removed, stat err = %v", err)
	}
}

func TestOrchestratorListAndRemove(t *testing.T) {
	b := newBuilder(t, source.Registry{})
	o := NewOrchestrator(b, Options{}, nil)

	done := NewJob(Request{Topic: "done"})
	done.req.OutputDir = filepath.Join(b.OutputDir, done.ID)
	if err := os.MkdirAll(done.req.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	done.Fail(StatusFailed, "boom")
	o.jobs.Put(done)

	time.Sleep(time.Millisecond)
	running := NewJob(Request{Topic: "running"})
	running.SetStatus(StatusFetching, "fetching")
	o.jobs.Put(running)

	snaps := o.Jobs()
	if len(snaps) != 2 || snaps[0].ID != done.ID || snaps[1].ID != running.ID {
		t.Fatalf("Jobs() should list oldest first, got %+v", snaps)
	}

	if found, err := o.Remove(running.ID); !found || err == nil {
		t.Errorf("removing a running job: found=%v err=%v", found, err)
	}
	if found, err := o.Remove(done.ID); !found || err != nil {
		t.Errorf("removing a finished job: found=%v err=%v", found, err)
	}
	if _, err := os.Stat(done.req.OutputDir); !os.IsNotExist(err) {
		t.Errorf("output should be deleted, stat err = %v", err)
	}
	if found, _ := o.Remove("missing"); found {
		t.Error("unknown job should not be found")
	}
}
