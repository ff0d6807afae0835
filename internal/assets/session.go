package assets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the batch-level lifecycle.
type SessionState string

const (
	SessionRunning          SessionState = "running"
	SessionAwaitingDecision SessionState = "awaiting_decision"
	SessionCompleted        SessionState = "completed"
	SessionCancelled        SessionState = "cancelled"
)

// CleanupChoice is the caller's answer to "what happens to files already
// uploaded when a session is cancelled mid-batch".
type CleanupChoice string

const (
	CleanupKeep     CleanupChoice = "keep"
	CleanupRollback CleanupChoice = "rollback"
	CleanupContinue CleanupChoice = "continue"
)

// SessionSummary is returned once a session reaches a terminal state.
type SessionSummary struct {
	Completed int        `json:"completed"`
	Failed    int        `json:"failed"`
	Cancelled int        `json:"cancelled"`
	Files     []TaskView `json:"files"`
}

// Session is one batch upload: its ordered tasks, cancellation token and
// progress counters. The task list is the only shared mutable resource;
// every mutation goes through methods that hold mu.
type Session struct {
	ID        uuid.UUID
	Kind      Kind
	ProductID uuid.UUID
	StartedAt time.Time

	mu      sync.Mutex
	state   SessionState
	order   []TaskKey
	tasks   map[TaskKey]*Task
	current int // index of the file in flight or next to start

	token *CancelToken

	// EndedAt is set when the session reaches a terminal state; the registry
	// sweeps the session after the display-grace period.
	endedAt time.Time
}

// NewSession builds a session with one pending task per file, preserving
// submission order.
func NewSession(productID uuid.UUID, kind Kind, files []FileUpload) *Session {
	s := &Session{
		ID:        uuid.New(),
		Kind:      kind,
		ProductID: productID,
		StartedAt: time.Now(),
		state:     SessionRunning,
		tasks:     make(map[TaskKey]*Task, len(files)),
		token:     NewCancelToken(),
	}
	for _, f := range files {
		key := f.Key()
		s.order = append(s.order, key)
		s.tasks[key] = &Task{Key: key, File: f, Status: TaskPending}
	}
	return s
}

func (s *Session) Token() *CancelToken { return s.token }

// Tasks returns the tasks in submission order. The returned pointers are
// owned by the controller; callers outside it use Snapshot.
func (s *Session) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.tasks[key])
	}
	return out
}

// Transition moves the task identified by key to status, recording error or
// result as appropriate.
func (s *Session) Transition(key TaskKey, status TaskStatus, err error, result *UploadResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[key]
	if !ok || task.Status.Terminal() {
		return
	}
	task.Status = status
	task.Err = err
	task.Result = result
	if status == TaskUploading {
		task.StartedAt = time.Now()
	}
}

// MarkPartialSync flags a completed task whose derived-field patch was not
// confirmed. Never silently dropped: it surfaces in every later snapshot.
func (s *Session) MarkPartialSync(key TaskKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[key]; ok {
		task.PartialSync = true
	}
}

// SetCurrent records which file is in flight, for progress reporting.
func (s *Session) SetCurrent(index int) {
	s.mu.Lock()
	s.current = index
	s.mu.Unlock()
}

// Current returns the index of the file in flight or next to start.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Progress reports (files in a terminal state, total).
func (s *Session) Progress() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.order {
		if s.tasks[key].Status.Terminal() {
			done++
		}
	}
	return done, len(s.order)
}

// CompletedTasks returns the tasks that reached completed, in submission
// order. Used by the rollback path.
func (s *Session) CompletedTasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Task
	for _, key := range s.order {
		if t := s.tasks[key]; t.Status == TaskCompleted {
			out = append(out, t)
		}
	}
	return out
}

// CompletedCount returns how many tasks reached completed so far.
func (s *Session) CompletedCount() int {
	return len(s.CompletedTasks())
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetState(state SessionState) {
	s.mu.Lock()
	s.state = state
	if state == SessionCompleted || state == SessionCancelled {
		s.endedAt = time.Now()
	}
	s.mu.Unlock()
}

// EndedAt returns when the session reached a terminal state, or zero.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Summary builds the batch result: counts plus ordered per-file detail.
func (s *Session) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := SessionSummary{Files: make([]TaskView, 0, len(s.order))}
	for _, key := range s.order {
		task := s.tasks[key]
		view := TaskView{Name: task.File.Name, Size: task.File.Size, Status: task.Status, PartialSync: task.PartialSync}
		if task.Err != nil {
			view.Error = task.Err.Error()
		}
		if task.Result != nil {
			view.URL = task.Result.URL
		}
		summary.Files = append(summary.Files, view)
		switch task.Status {
		case TaskCompleted:
			summary.Completed++
		case TaskFailed:
			summary.Failed++
		case TaskCancelled:
			summary.Cancelled++
		}
	}
	return summary
}
