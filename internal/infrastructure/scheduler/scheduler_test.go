package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	name string
	run  func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Description() string           { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.run(ctx) }

type recordingMetrics struct {
	finished atomic.Int32
	failed   atomic.Int32
}

func (m *recordingMetrics) JobFinished(_ string, _ time.Duration, err error) {
	m.finished.Add(1)
	if err != nil {
		m.failed.Add(1)
	}
}

func TestCronSchedule_SecondsResolution(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 59, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"0 0 1 * * *":  time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC),
		"20 0 1 * * *": time.Date(2024, 5, 1, 1, 0, 20, 0, time.UTC),
		"40 0 1 * * *": time.Date(2024, 5, 1, 1, 0, 40, 0, time.UTC),
	}
	for expr, want := range cases {
		s, err := ParseCron(expr, nil)
		require.NoError(t, err, expr)
		assert.Equal(t, want, s.Next(base), expr)
		assert.Equal(t, expr, s.String())
	}
}

func TestCronSchedule_NextDay(t *testing.T) {
	s := MustParseCron("0 0 1 * * *", time.UTC)
	after := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC), s.Next(after))
}

func TestParseCron_Invalid(t *testing.T) {
	_, err := ParseCron("0 0 1 * *", nil)
	assert.Error(t, err, "five fields lack seconds")

	_, err = ParseCron("nope", nil)
	assert.Error(t, err)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(6 * time.Hour)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(6*time.Hour), s.Next(now))
	assert.Equal(t, "@every 6h0m0s", s.String())

	assert.Equal(t, time.Second, NewIntervalSchedule(0).Interval)
}

func TestScheduler_RegisterDuplicate(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	job := funcJob{name: "a", run: func(context.Context) error { return nil }}

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Hour)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Hour)), ErrNilJob)
	assert.ErrorIs(t, s.Register(funcJob{name: "b"}, nil), ErrNilSchedule)
}

func TestScheduler_RunNow(t *testing.T) {
	m := &recordingMetrics{}
	s := New(Config{Logger: zerolog.Nop(), Metrics: m})
	boom := errors.New("boom")

	require.NoError(t, s.Register(funcJob{name: "ok", run: func(context.Context) error { return nil }}, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(funcJob{name: "bad", run: func(context.Context) error { return boom }}, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	_, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.EqualValues(t, 2, m.finished.Load())
	assert.EqualValues(t, 1, m.failed.Load())
	assert.Len(t, s.History(0), 2)
}

func TestScheduler_RunSequenceContinuesAfterFailure(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	var order []string
	mk := func(name string, err error) Job {
		return funcJob{name: name, run: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}
	require.NoError(t, s.Register(mk("one", nil), NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(mk("two", errors.New("two failed")), NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(mk("three", nil), NewIntervalSchedule(time.Hour)))

	err := s.RunSequence(context.Background(), "one", "two", "three")

	assert.Equal(t, []string{"one", "two", "three"}, order)
	assert.ErrorContains(t, err, "two failed")
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	require.NoError(t, s.Register(funcJob{name: "p", run: func(context.Context) error { panic("kaboom") }}, NewIntervalSchedule(time.Hour)))

	_, err := s.RunNow(context.Background(), "p")
	assert.ErrorIs(t, err, ErrJobPanicked)
}

func TestScheduler_JobTimeout(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop(), JobTimeout: 20 * time.Millisecond})
	require.NoError(t, s.Register(funcJob{name: "slow", run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}, NewIntervalSchedule(time.Hour)))

	_, err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_DueJobDoesNotOverlap(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Register(funcJob{name: "long", run: func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	}}, NewIntervalSchedule(time.Second)))

	var current atomic.Int64
	current.Store(time.Now().UnixNano())
	s.now = func() time.Time { return time.Unix(0, current.Load()) }
	s.ctx, s.cancel = context.WithCancel(context.Background())
	defer s.cancel()

	current.Add(int64(2 * time.Second))
	s.dispatchDue()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	current.Add(int64(2 * time.Second))
	s.dispatchDue()

	close(release)
	s.wg.Wait()
	assert.EqualValues(t, 1, runs.Load())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(Config{Logger: zerolog.Nop()})
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}
