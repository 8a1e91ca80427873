package http

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// JobStatus is the lifecycle state of a submitted project.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous project run.
type Job struct {
	mu        sync.Mutex
	id        string
	request   project.Request
	status    JobStatus
	result    *project.Result
	err       string
	createdAt time.Time
	events    []project.StepProgress
	subs      map[chan project.StepProgress]struct{}
	done      bool
}

// JobView is the JSON form of a job.
type JobView struct {
	ID        string                `json:"id"`
	Status    JobStatus             `json:"status"`
	Request   project.Request       `json:"request"`
	CreatedAt time.Time             `json:"created_at"`
	Progress  *project.StepProgress `json:"progress,omitempty"`
	Error     string                `json:"error,omitempty"`
	Result    *project.Result       `json:"result,omitempty"`
}

func newJob(id string, req project.Request) *Job {
	return &Job{
		id:        id,
		request:   req,
		status:    JobQueued,
		createdAt: time.Now(),
		subs:      make(map[chan project.StepProgress]struct{}),
	}
}

// View returns a snapshot of the job.
func (j *Job) View() JobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := JobView{
		ID:        j.id,
		Status:    j.status,
		Request:   j.request,
		CreatedAt: j.createdAt,
		Error:     j.err,
		Result:    j.result,
	}
	if n := len(j.events); n > 0 {
		last := j.events[n-1]
		v.Progress = &last
	}
	return v
}

func (j *Job) setRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobRunning
}

// record stores an event and forwards it to subscribers. Slow subscribers
// miss events rather than blocking the pipeline.
func (j *Job) record(p project.StepProgress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.done {
		return
	}
	j.events = append(j.events, p)
	for ch := range j.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

// finish stores the outcome and closes every subscription.
func (j *Job) finish(res *project.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	switch {
	case err != nil:
		j.status = JobFailed
		j.err = err.Error()
	case res == nil || res.Fatal:
		j.status = JobFailed
	default:
		j.status = JobCompleted
	}
	j.done = true
	for ch := range j.subs {
		close(ch)
		delete(j.subs, ch)
	}
}

// Subscribe returns the events so far and a channel of later events. The
// channel is closed when the job finishes. A nil channel means the job has
// already finished.
func (j *Job) Subscribe() ([]project.StepProgress, chan project.StepProgress, func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	history := append([]project.StepProgress(nil), j.events...)
	if j.done {
		return history, nil, func() {}
	}
	ch := make(chan project.StepProgress, 64)
	j.subs[ch] = struct{}{}
	cancel := func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		if _, ok := j.subs[ch]; ok {
			delete(j.subs, ch)
			close(ch)
		}
	}
	return history, ch, cancel
}

// JobStore keeps the most recent jobs.
type JobStore struct {
	cache *lru.Cache[string, *Job]
}

// NewJobStore creates a store holding at most size jobs.
func NewJobStore(size int) (*JobStore, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, *Job](size)
	if err != nil {
		return nil, err
	}
	return &JobStore{cache: cache}, nil
}

func (s *JobStore) add(j *Job) { s.cache.Add(j.id, j) }

// Get returns a job by ID.
func (s *JobStore) Get(id string) (*Job, bool) { return s.cache.Get(id) }

// Len returns the number of stored jobs.
func (s *JobStore) Len() int { return s.cache.Len() }
