package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Factor:      2,
		Classify:    DefaultClassify,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	calls := 0

	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("gateway 503"))
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_TransientExhaustionReturnsOriginalError(t *testing.T) {
	calls := 0
	cause := errors.New("gateway 503")

	err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Transient(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentFailsFirstAttempt(t *testing.T) {
	calls := 0
	cause := errors.New("card declined")

	err := fastPolicy(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := fastPolicy(100).Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Transient(errors.New("still down"))
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}

func TestDo_SingleAttemptPolicy(t *testing.T) {
	calls := 0

	err := fastPolicy(1).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Transient(errors.New("down"))
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDefaultClassify(t *testing.T) {
	assert.True(t, DefaultClassify(Transient(errors.New("5xx"))))
	assert.True(t, DefaultClassify(context.DeadlineExceeded))
	assert.False(t, DefaultClassify(errors.New("validation failed")))
	assert.False(t, DefaultClassify(context.Canceled))
}

func TestTransient(t *testing.T) {
	assert.Nil(t, Transient(nil))

	cause := errors.New("boom")
	wrapped := Transient(cause)
	assert.Equal(t, "boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}
