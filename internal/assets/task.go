package assets

import (
	"time"
)

// TaskStatus is the per-file state machine:
// pending → uploading → {completed | failed | cancelled}.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskUploading TaskStatus = "uploading"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// TaskKey is the stable identity of a file within a session. Async
// completions can resolve out of submission order, so tasks are addressed
// by this composite, never by positional index.
type TaskKey struct {
	Name    string
	Size    int64
	ModTime int64 // unix millis
}

// FileUpload is one file submitted to a session.
type FileUpload struct {
	Name        string
	Size        int64
	ModTime     int64
	ContentType string
	Data        []byte
	// Module is the optional slot context (e.g. slide batches per module).
	Module int
}

func (f FileUpload) Key() TaskKey {
	return TaskKey{Name: f.Name, Size: f.Size, ModTime: f.ModTime}
}

// UploadResult is the remote store's response to a successful transfer.
type UploadResult struct {
	Filename string
	Size     int64
	URL      string
	Key      string
}

// Task tracks one file through the session. Mutated only by the session
// controller while holding the session lock.
type Task struct {
	Key       TaskKey
	File      FileUpload
	Status    TaskStatus
	Err       error
	Result    *UploadResult
	StartedAt time.Time
	// PartialSync: the transfer succeeded but the owning record's derived
	// fields were not confirmed updated.
	PartialSync bool
}

// TaskView is an immutable snapshot of a task for callers.
type TaskView struct {
	Name        string     `json:"name"`
	Size        int64      `json:"size"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	URL         string     `json:"url,omitempty"`
	PartialSync bool       `json:"partial_sync,omitempty"`
}
