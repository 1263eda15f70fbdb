package port

import (
	"context"
	"time"
)

// Task is a background job: a stable type name plus opaque payload bytes.
// Encoding is the producer's business; the port stays serialization-free.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes one Task. A non-nil error asks the adapter to retry per
// its policy, so handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption tunes a single enqueue. Zero values mean "unspecified" and
// leave the adapter's defaults in place.
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before the task becomes runnable
	MaxRetry  int           // attempts before the task is parked
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs background workers that handle tasks. Run blocks until the
// context is canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}
