package videogen

import (
	"context"
	"io"
)

// OperationHandle identifies a long-running generation operation at the
// backend.
type OperationHandle struct {
	Name string
}

// OperationStatus is one poll observation. ResultURI is only meaningful
// once Done is true; a done operation without a locator means the backend
// finished but produced nothing fetchable.
type OperationStatus struct {
	Done      bool
	ResultURI string
}

// Backend is the video generation provider contract.
type Backend interface {
	Start(ctx context.Context, prompt string) (OperationHandle, error)
	Poll(ctx context.Context, handle OperationHandle) (OperationStatus, error)
	Fetch(ctx context.Context, locator string) (io.ReadCloser, error)
}
