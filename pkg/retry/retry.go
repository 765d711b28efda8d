package retry

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// TransientError marks an error as retryable regardless of its type.
// Collaborator adapters wrap gateway 5xx and transport failures with it.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err so the default classifier retries it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// DefaultClassify retries network/timeout failures and anything explicitly
// marked Transient. Business conflicts, validation failures and other
// caller errors are permanent and surface on first occurrence.
func DefaultClassify(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Policy is a reusable bounded-exponential-backoff wrapper for outbound
// calls. One policy object serves every call site; per-site inline backoff
// loops are exactly what it exists to replace.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Factor      float64
	Classify    func(error) bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Factor:      2,
		Classify:    DefaultClassify,
	}
}

// Do runs op, retrying transient failures with exponential backoff until
// MaxAttempts is reached. Permanent failures return immediately. In both
// cases the last error from op is returned unchanged so the caller still
// sees the root cause.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	classify := p.Classify
	if classify == nil {
		classify = DefaultClassify
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Factor
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempts := uint64(1)
	if p.MaxAttempts > 1 {
		attempts = uint64(p.MaxAttempts)
	}

	err := backoff.Retry(func() error {
		if err := op(ctx); err != nil {
			if !classify(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, attempts-1), ctx))

	// Hand the original error back, not the retry marker.
	if te, ok := err.(*TransientError); ok {
		return te.Err
	}
	return err
}
