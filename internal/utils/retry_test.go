package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastStartup keeps the startup error patterns but shrinks the waits.
func fastStartup() RetryConfig {
	config := StartupRetryConfig()
	config.InitialDelay = time.Millisecond
	config.MaxDelay = 5 * time.Millisecond
	config.Timeout = 50 * time.Millisecond
	return config
}

func TestStartupRetryConfigPatterns(t *testing.T) {
	patterns := StartupRetryConfig().RetryableErrors

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"Database starting", errors.New("FATAL: the database system is starting up (SQLSTATE 57P03)"), true},
		{"DNS not ready", errors.New("dial tcp: lookup postgres: no such host"), true},
		{"Case insensitive", errors.New("unexpected EOF"), true},
		{"Bad password", errors.New(`password authentication failed for user "chef"`), false},
		{"Nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err, patterns))
		})
	}
}

func TestWithRetryDatabaseComesUp(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (struct{}, error) {
		attempts++
		if attempts < 3 {
			return struct{}{}, errors.New("FATAL: the database system is starting up")
		}
		return struct{}{}, nil
	}, fastStartup())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	wantErr := errors.New(`password authentication failed for user "chef"`)
	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (struct{}, error) {
		attempts++
		return struct{}{}, wantErr
	}, fastStartup())

	assert.Equal(t, wantErr, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryGivesUp(t *testing.T) {
	config := fastStartup()
	config.MaxAttempts = 4

	attempts := 0
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("connection refused")
	}, config)

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 4, attempts)
}

func TestWithRetryAttemptTimeout(t *testing.T) {
	config := fastStartup()
	config.MaxAttempts = 1
	config.Timeout = 10 * time.Millisecond

	_, err := WithRetry(context.Background(), func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	}, config)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithRetryShutdownDuringWait(t *testing.T) {
	config := fastStartup()
	config.InitialDelay = time.Second
	config.MaxDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, errors.New("connection refused")
	}, config)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
