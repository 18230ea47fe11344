package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockReloader struct {
	ReloadFunc func(ctx context.Context) error
	calls      atomic.Int32
}

func (m *MockReloader) Reload(ctx context.Context) error {
	m.calls.Add(1)
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return nil
}

func TestRunOnce(t *testing.T) {
	logger, hook := test.NewNullLogger()
	target := &MockReloader{}
	s := New("@every 1h", target, logger)

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), target.calls.Load())
	assert.Equal(t, "Season reloaded", hook.LastEntry().Message)
}

func TestRunOnce_Error(t *testing.T) {
	logger, _ := test.NewNullLogger()
	target := &MockReloader{ReloadFunc: func(ctx context.Context) error { return errors.New("disk gone") }}
	s := New("@every 1h", target, logger)

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRunOnce_SkipsOverlap(t *testing.T) {
	logger, _ := test.NewNullLogger()
	release := make(chan struct{})
	started := make(chan struct{})
	target := &MockReloader{ReloadFunc: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}
	s := New("@every 1h", target, logger)

	done := make(chan error)
	go func() { done <- s.RunOnce(context.Background()) }()
	<-started

	assert.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), target.calls.Load(), "second run skipped while the first is in flight")

	close(release)
	assert.NoError(t, <-done)
}

func TestStart_InvalidSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New("not a schedule", &MockReloader{}, logger)
	assert.Error(t, s.Start(context.Background()))
}

func TestStart_RunsOnSchedule(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fired := make(chan struct{}, 1)
	target := &MockReloader{ReloadFunc: func(ctx context.Context) error {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}}
	s := New("@every 1s", target, logger)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("reload never ran")
	}
}
