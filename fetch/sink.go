package fetch

import "github.com/trawl-media/trawl/media"

// OperationID identifies an operation for cancellation. Ids are unique within the process.
type OperationID uint64

// Sink receives the items of an operation.
//
// Items arrive in backend order. Exactly one call per operation carries Last or a
// non-nil error, and no call follows it. A nil item with Last and a nil error means
// the result set is empty.
type Sink interface {
	Emit(op OperationID, item *media.Media, hint Hint, err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(op OperationID, item *media.Media, hint Hint, err error)

func (f SinkFunc) Emit(op OperationID, item *media.Media, hint Hint, err error) {
	f(op, item, hint, err)
}
