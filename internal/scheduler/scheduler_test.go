package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := New(time.UTC)
	err := s.Schedule("not a cron spec", "bad", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduleAcceptsStandardSpecs(t *testing.T) {
	s := New(time.UTC)
	require.NoError(t, s.Schedule("0 20 * * 3", "draw", func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Schedule("0 8 * * 4", "sweep", func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Schedule("30 3 * * *", "cleanup", func(ctx context.Context) error { return nil }))
}

func TestRunRecoversPanic(t *testing.T) {
	s := New(time.UTC)
	assert.NotPanics(t, func() {
		s.run("panicky", func(ctx context.Context) error { panic("boom") })
	})
}

func TestRunPassesDeadlineContext(t *testing.T) {
	s := New(time.UTC)
	var hadDeadline bool
	s.run("deadline", func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return errors.New("ignored")
	})
	assert.True(t, hadDeadline)
}
