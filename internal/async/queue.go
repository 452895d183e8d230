package async

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue is shutting down")

// Job asks for one document to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	RunID       string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
