package domain

import "context"

// Advisor turns the numeric signals of one image into the remote model's
// assessment text. Implementations may block on network I/O and must honor ctx.
type Advisor interface {
	Advise(ctx context.Context, a Assessment) (string, error)
}

// RecordSink appends one encrypted record and returns its row id. It must be
// durable before it returns nil, and must either write the whole record or nothing.
type RecordSink interface {
	Append(ctx context.Context, runID string, rec EncryptedRecord) (int64, error)
}
