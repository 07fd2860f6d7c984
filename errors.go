package ostree

import (
	"github.com/pingcap/errors"
)

// Errors returned by Tree and PercentileIndex.
// Returned errors are annotated with the offending key or rank; compare
// with errors.Cause(err) or use the Is* helpers below.
var (
	// ErrDuplicateKey is returned when inserting a key that is already stored.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrKeyNotFound is returned when looking up or deleting an absent key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrRankOutOfRange is returned by Select when k is outside [1, size].
	ErrRankOutOfRange = errors.New("rank out of range")
	// ErrEmptyIndex is returned by percentile queries on an empty index.
	ErrEmptyIndex = errors.New("empty index")
	// ErrInvalidPercentile is returned when a percentage is outside [0, 100]
	// or the low bound exceeds the high bound.
	ErrInvalidPercentile = errors.New("invalid percentile")
	// ErrUnorderedKey is returned when inserting a key that does not compare
	// equal to itself (a floating-point NaN).
	ErrUnorderedKey = errors.New("unordered key")
)

// IsDuplicateKey reports whether err was caused by ErrDuplicateKey.
func IsDuplicateKey(err error) bool {
	return errors.Cause(err) == ErrDuplicateKey
}

// IsKeyNotFound reports whether err was caused by ErrKeyNotFound.
func IsKeyNotFound(err error) bool {
	return errors.Cause(err) == ErrKeyNotFound
}

// IsRankOutOfRange reports whether err was caused by ErrRankOutOfRange.
func IsRankOutOfRange(err error) bool {
	return errors.Cause(err) == ErrRankOutOfRange
}

// IsEmptyIndex reports whether err was caused by ErrEmptyIndex.
func IsEmptyIndex(err error) bool {
	return errors.Cause(err) == ErrEmptyIndex
}
