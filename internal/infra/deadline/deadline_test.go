package deadline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsValueBeforeDeadline(t *testing.T) {
	value, err := Run(context.Background(), time.Second, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
}

func TestRun_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_TimesOutWhenCallIgnoresContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	started := time.Now()
	_, err := Run(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out after 20ms")
	assert.Less(t, time.Since(started), time.Second)
}

func TestRun_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDiscard_ReleasesLateValue(t *testing.T) {
	release := make(chan struct{})
	discarded := make(chan string, 1)

	_, err := RunDiscard(context.Background(), 10*time.Millisecond, func(context.Context) (string, error) {
		<-release
		return "late", nil
	}, func(value string) {
		discarded <- value
	})
	require.Error(t, err)
	close(release)

	select {
	case value := <-discarded:
		assert.Equal(t, "late", value)
	case <-time.After(time.Second):
		t.Fatal("late value was not discarded")
	}
}
