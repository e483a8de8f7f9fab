package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.Nil(t, cfg.ShouldRetry)
}

func TestDo_SuccessFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New("still down")
	})
	require.EqualError(t, err, "still down")
	assert.Equal(t, 4, calls)
}

func TestDo_ShouldRetryStopsOnPermanentError(t *testing.T) {
	cfg := fastConfig()
	cfg.ShouldRetry = IsRetryable

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("password authentication failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCalled(t *testing.T) {
	cfg := fastConfig()
	var attempts []int
	cfg.OnRetry = func(attempt int, _ time.Duration, _ error) {
		attempts = append(attempts, attempt)
	}

	_ = Do(context.Background(), cfg, func() error { return errors.New("timeout") })
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, cfg, func() error { return errors.New("connection refused") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0
	v, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("i/o timeout")
		}
		return "pool", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pool", v)
}

func TestDoWithResult_NilConfigUsesDefaults(t *testing.T) {
	v, err := DoWithResult(context.Background(), nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

type declaredErr struct{ retryable bool }

func (e declaredErr) Error() string     { return "declared" }
func (e declaredErr) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"postgres starting", errors.New("FATAL: the database system is starting up"), true},
		{"mongo selection", errors.New("server selection error: context deadline"), true},
		{"auth failure", errors.New("password authentication failed"), false},
		{"declared retryable", declaredErr{retryable: true}, true},
		{"declared permanent", declaredErr{retryable: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
