package pricing

import (
	"errors"
	"time"
)

// MinBookableDuration is the shortest window the system will price or book.
const MinBookableDuration = 10 * time.Minute

var (
	ErrInvalidWindow = errors.New("end time must be after start time")
	ErrTooShort      = errors.New("booking window is shorter than the minimum duration")
	ErrPastWindow    = errors.New("booking window starts in the past")
)

// ValidateWindow checks a requested booking window. The reference time is
// always passed in so callers and tests control the clock; this function
// never reads wall-clock time itself.
func ValidateWindow(start, end, now time.Time) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}
	if end.Sub(start) < MinBookableDuration {
		return ErrTooShort
	}
	if !start.After(now) {
		return ErrPastWindow
	}
	return nil
}
