package memory

import "errors"

// ErrNotConfigured is returned when memory operations are attempted
// but no memory driver has been configured.
var ErrNotConfigured = errors.New("memory not configured")

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("memory driver closed")
