package ingest

import "fmt"

// Partition splits items into contiguous batches of at most size elements,
// preserving order. It yields ceil(len(items)/size) batches; size <= 0 means
// a single batch.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// Batch operations reported by BatchError.
const (
	OpWrite    = "write"
	OpValidate = "validate"
)

// BatchError reports the batch that stopped an ingest. Batches before it stay committed.
type BatchError struct {
	Op        string // OpWrite or OpValidate; empty reads as OpWrite
	Batch     int    // 1-based index of the failed batch
	Committed int    // rows written by earlier batches
	Cause     error
}

func (e *BatchError) Error() string {
	op := e.Op
	if op == "" {
		op = OpWrite
	}
	return fmt.Sprintf("%s batch %d (%d rows committed): %v", op, e.Batch, e.Committed, e.Cause)
}

func (e *BatchError) Unwrap() error { return e.Cause }
