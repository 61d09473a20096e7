package eventstream

import "errors"

// ErrNilRecordEvent indicates a nil event payload was provided to a publisher.
var ErrNilRecordEvent = errors.New("nil memory record event")
