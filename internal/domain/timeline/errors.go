package timeline

import "errors"

var (
	// ErrInvalidSegment marks malformed segment data from a collaborator.
	ErrInvalidSegment = errors.New("invalid segment")
	// ErrEmptyResult means reconstruction would produce no output at all.
	ErrEmptyResult = errors.New("empty result")
	// ErrOutOfRangeSegment annotates segments that were clamped to the track. Not fatal.
	ErrOutOfRangeSegment = errors.New("segment out of range")
	// ErrSourceUnavailable means the original track is missing or unreadable.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// IsRecoverable reports whether the caller can fall back to the unmodified original.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidSegment) || errors.Is(err, ErrEmptyResult)
}
