package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/jackzampolin/outline/internal/batch"
)

// ErrNotFound is returned when a run record does not exist.
var ErrNotFound = errors.New("run not found")

// ErrFinished is returned when cancelling a run that already reached a terminal status.
var ErrFinished = errors.New("run finished")

// Status represents the current state of a run.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a run in this status will never be stepped again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Record is a persisted run. It maps to the Run schema.
type Record struct {
	ID          string      `json:"id,omitempty"`
	Op          batch.Op    `json:"op"`
	BookType    string      `json:"book_type,omitempty"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Error       string      `json:"error,omitempty"`
	Token       batch.Token `json:"token"`
}

// NewRecord creates a queued record holding a fresh token.
func NewRecord(op batch.Op, bookType string) *Record {
	return &Record{
		Op:        op,
		BookType:  bookType,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
		Token:     batch.NewToken(op, bookType),
	}
}

// ListFilter specifies criteria for listing runs.
type ListFilter struct {
	Status   Status   // Filter by status (empty = all)
	Op       batch.Op // Filter by operation (empty = all)
	BookType string
	Limit    int // Max results (0 = default 100)
}

// Store persists run records.
type Store interface {
	Create(ctx context.Context, r *Record) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, f ListFilter) ([]*Record, error)
	UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error
	// UpdateToken persists the token after a chunk. The snapshot is not part of
	// it; SaveSnapshot writes that once, when the run fixes it.
	UpdateToken(ctx context.Context, id string, tok batch.Token) error
	SaveSnapshot(ctx context.Context, id string, ids []string) error
}
