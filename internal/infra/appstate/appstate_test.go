package appstate_test

import (
	"context"
	"os"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/require"

	"github.com/fleetguard/fleetguard-controller/internal/infra/appstate"
)

type recordedShutdowner struct {
	called bool
	err    error
}

func (r *recordedShutdowner) Name() string {
	return "recorded"
}

func (r *recordedShutdowner) Shutdown(context.Context) error {
	r.called = true

	return r.err
}

func newAppState() *appstate.AppState {
	return appstate.New(slog.Default(), time.Now(), make(chan os.Signal))
}

func TestAppState_Transitions(t *testing.T) {
	t.Parallel()

	t.Run("normal lifecycle", func(t *testing.T) {
		t.Parallel()

		s := newAppState()
		require.Equal(t, appstate.StateInit, s.GetState())
		require.False(t, s.IsHealthy())
		require.False(t, s.IsReady())

		require.NoError(t, s.SetStarting(t.Context()))
		require.Equal(t, appstate.StateStarting, s.GetState())

		require.NoError(t, s.SetRunning(t.Context()))
		require.True(t, s.IsHealthy())
		require.True(t, s.IsReady())

		require.NoError(t, s.SetTerminating(t.Context()))
		require.False(t, s.IsHealthy())
	})

	t.Run("running requires starting first", func(t *testing.T) {
		t.Parallel()

		s := newAppState()

		err := s.SetRunning(t.Context())
		require.ErrorIs(t, err, appstate.ErrInvalidStateTransition)
	})

	t.Run("starting twice fails", func(t *testing.T) {
		t.Parallel()

		s := newAppState()
		require.NoError(t, s.SetStarting(t.Context()))

		err := s.SetStarting(t.Context())
		require.ErrorIs(t, err, appstate.ErrInvalidStateTransition)
	})
}

func TestAppState_Shutdown(t *testing.T) {
	t.Parallel()

	t.Run("shuts down registered components", func(t *testing.T) {
		t.Parallel()

		s := newAppState()
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))

		first := &recordedShutdowner{}
		s.RegisterShutdowner(first)

		require.NoError(t, s.Shutdown(t.Context()))
		require.True(t, first.called)
		require.Equal(t, appstate.StateTerminated, s.GetState())
	})

	t.Run("second shutdown fails", func(t *testing.T) {
		t.Parallel()

		s := newAppState()
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		require.NoError(t, s.Shutdown(t.Context()))

		err := s.Shutdown(t.Context())
		require.ErrorIs(t, err, appstate.ErrAlreadyTerminated)
	})

	t.Run("component error is returned and state still terminated", func(t *testing.T) {
		t.Parallel()

		s := newAppState()
		require.NoError(t, s.SetStarting(t.Context()))
		require.NoError(t, s.SetRunning(t.Context()))
		s.RegisterShutdowner(&recordedShutdowner{err: context.DeadlineExceeded})

		err := s.Shutdown(t.Context())
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, appstate.StateTerminated, s.GetState())
	})
}

func TestAppState_Uptime(t *testing.T) {
	t.Parallel()

	start := time.Now().Add(-time.Minute)
	s := appstate.New(slog.Default(), start, make(chan os.Signal))

	require.Equal(t, start, s.GetStartTime())
	require.GreaterOrEqual(t, s.GetUptime(), time.Minute)
}
