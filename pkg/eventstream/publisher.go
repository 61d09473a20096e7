package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishRecord(ctx context.Context, event *MemoryRecordedEvent) error
	Close() error
}
