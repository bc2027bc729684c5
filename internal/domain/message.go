package domain

import (
	"context"
	"time"
)

// RawMessage is one record consumed from the streaming source, carrying
// enough metadata to log its origin and commit its offset after processing.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string

	// Commit acknowledges the message offset. Nil when the source does not
	// track offsets, such as in tests.
	Commit func(ctx context.Context) error
}
