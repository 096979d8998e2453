package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/deckgest/internal/slides"
)

// JobStatus represents the state of a deck job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusParsing   JobStatus = "parsing"
	StatusFitting   JobStatus = "fitting"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusNotFound  JobStatus = "not_found"
	StatusAmbiguous JobStatus = "ambiguous"
)

// Terminal reports whether no further transitions happen from s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNotFound, StatusAmbiguous:
		return true
	}
	return false
}

// Job tracks the state of a single deck build.
type Job struct {
	mu sync.Mutex

	ID      string
	Status  JobStatus
	Phase   string
	Topic   string
	Source  string
	Profile string
	Format  string

	Title      string
	Candidates []string
	Options    []string
	Deck       *slides.Deck
	OutputFile string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Internal: not serialized.
	req    Request
	errors []string
}

// NewJob creates a queued job for req with a fresh ID.
func NewJob(req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Topic:     req.Topic,
		Source:    req.Source,
		Profile:   req.Profile,
		Format:    req.Format,
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
	}
}

// Request returns the request the job was created with.
func (j *Job) Request() Request {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.req
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Fail records msg and moves the job to a terminal status, keeping the phase
// it stopped in.
func (j *Job) Fail(status JobStatus, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, msg)
	j.Status = status
	j.req.Data = nil
	j.UpdatedAt = time.Now()
}

// SetAlternatives records the suggestions from a not-found or ambiguous lookup.
func (j *Job) SetAlternatives(candidates, options []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Candidates = candidates
	j.Options = options
	j.UpdatedAt = time.Now()
}

// Complete stores the fitted deck and rendered file, releases the upload and
// marks the job completed.
func (j *Job) Complete(title string, deck slides.Deck, file string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.Deck = &deck
	j.OutputFile = file
	j.req.Data = nil
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// File returns the rendered file path once the job has completed.
func (j *Job) File() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.OutputFile, j.Status == StatusCompleted && j.OutputFile != ""
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string       `json:"job_id"`
	Status     JobStatus    `json:"status"`
	Phase      string       `json:"phase"`
	Topic      string       `json:"topic"`
	Source     string       `json:"source"`
	Profile    string       `json:"profile,omitempty"`
	Format     string       `json:"format"`
	Title      string       `json:"title,omitempty"`
	SlideCount int          `json:"slide_count"`
	Deck       *slides.Deck `json:"deck,omitempty"`
	Candidates []string     `json:"candidates,omitempty"`
	Options    []string     `json:"options,omitempty"`
	Errors     []string     `json:"errors"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	snap := JobSnapshot{
		ID:         j.ID,
		Status:     j.Status,
		Phase:      j.Phase,
		Topic:      j.Topic,
		Source:     j.Source,
		Profile:    j.Profile,
		Format:     j.Format,
		Title:      j.Title,
		Candidates: j.Candidates,
		Options:    j.Options,
		Errors:     errs,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}
	if j.Deck != nil {
		d := *j.Deck
		snap.Deck = &d
		snap.SlideCount = len(d.Slides)
	}
	return snap
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs idle for longer than the TTL and returns them
// so the caller can release their files. Queued and running jobs are kept.
func (s *JobStore) Cleanup() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var expired []*Job
	for id, job := range s.jobs {
		job.mu.Lock()
		idle := now.Sub(job.UpdatedAt)
		done := job.Status.Terminal()
		job.mu.Unlock()
		if done && idle > s.ttl {
			delete(s.jobs, id)
			expired = append(expired, job)
		}
	}
	return expired
}

// List returns tracked jobs, oldest first.
func (s *JobStore) List() []*Job {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()
	slices.SortFunc(jobs, func(a, b *Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs
}

// Delete removes a job and returns it, or nil if unknown.
func (s *JobStore) Delete(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	delete(s.jobs, id)
	return job
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
