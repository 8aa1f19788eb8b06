package imager

import (
	"errors"
	"fmt"
)

// MaxBatchSize is the largest number of ids the rendering endpoint accepts
// in one request before the URL grows past safe limits.
const MaxBatchSize = 200

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 100

// NodesBatchSize bounds the ids per "nodes by id" request.
const NodesBatchSize = 40

// ErrInvalidBatchSize is returned for a batch size below 1.
var ErrInvalidBatchSize = errors.New("batch size must be positive")

// ClampBatchSize caps size at MaxBatchSize. It reports whether the value changed.
func ClampBatchSize(size int) (int, bool) {
	if size > MaxBatchSize {
		return MaxBatchSize, true
	}
	return size, false
}

// Batches splits ids into consecutive chunks of at most size elements,
// preserving order. Concatenating the result reproduces ids.
func Batches(ids []string, size int) ([][]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}

	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end:end])
	}
	return batches, nil
}
