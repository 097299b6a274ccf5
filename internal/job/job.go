// Package job tracks pipeline runs: their lifecycle state and a
// progress view that only ever moves forward.
package job

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a run.
type State string

const (
	StatePending State = "PENDING"
	StateRunning State = "RUNNING"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
)

// Snapshot is a point-in-time view of a run, safe to hand out.
type Snapshot struct {
	ID         string    `json:"id"`
	State      State     `json:"state"`
	Phase      string    `json:"phase,omitempty"`
	Done       int       `json:"done"`
	Total      int       `json:"total"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Job is one tracked run. Progress counters are monotonic: Advance
// only moves Done forward, and a new phase resets the frame explicitly.
type Job struct {
	id        string
	createdAt time.Time

	mu         sync.Mutex
	state      State
	phase      string
	done       int
	total      int
	message    string
	err        string
	startedAt  time.Time
	finishedAt time.Time
}

// ID returns the job's identifier.
func (j *Job) ID() string { return j.id }

// Start transitions the job to RUNNING.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePending {
		return
	}
	j.state = StateRunning
	j.startedAt = time.Now()
}

// SetPhase opens a new progress frame. Done resets; the phase label
// tells readers which stage the counts refer to.
func (j *Job) SetPhase(phase string, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.phase = phase
	j.done = 0
	j.total = total
}

// Advance moves the progress counter forward. Non-positive deltas are
// ignored; progress never goes backwards within a phase.
func (j *Job) Advance(n int) {
	if n <= 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.done += n
	if j.total > 0 && j.done > j.total {
		j.done = j.total
	}
}

// SetMessage updates the human-readable status line.
func (j *Job) SetMessage(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.message = msg
}

// Succeed finishes the job successfully.
func (j *Job) Succeed(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateSuccess || j.state == StateFailure {
		return
	}
	j.state = StateSuccess
	j.message = msg
	j.finishedAt = time.Now()
}

// Fail finishes the job with an error.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == StateSuccess || j.state == StateFailure {
		return
	}
	j.state = StateFailure
	if err != nil {
		j.err = err.Error()
	}
	j.finishedAt = time.Now()
}

// Snapshot returns the current view of the job.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:         j.id,
		State:      j.state,
		Phase:      j.phase,
		Done:       j.done,
		Total:      j.total,
		Message:    j.message,
		Error:      j.err,
		StartedAt:  j.startedAt,
		FinishedAt: j.finishedAt,
		CreatedAt:  j.createdAt,
	}
}

// Registry holds jobs by ID.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job.
func (r *Registry) Create() *Job {
	j := &Job{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		state:     StatePending,
	}
	r.mu.Lock()
	r.jobs[j.id] = j
	r.mu.Unlock()
	return j
}

// Get returns a job by ID.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

// List returns snapshots of every job, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	out := make([]Snapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out
}
