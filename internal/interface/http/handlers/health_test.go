package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCompositeHealthChecker_AllHealthy(t *testing.T) {
	c := NewCompositeHealthChecker("v1")
	c.AddCheck("postgres", PingCheck(pingFunc(func(context.Context) error { return nil })))
	c.AddCheck("redis", PingCheck(pingFunc(func(context.Context) error { return nil })))

	st := c.Check(context.Background())
	assert.True(t, st.Healthy)
	assert.Len(t, st.Checks, 2)
	assert.Equal(t, "v1", st.Version)
}

func TestCompositeHealthChecker_ReportsFailures(t *testing.T) {
	c := NewCompositeHealthChecker("v1")
	c.AddCheck("postgres", func(context.Context) error { return nil })
	c.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	st := c.Check(context.Background())
	assert.False(t, st.Healthy)
	assert.Equal(t, "Some checks failed: redis", st.Message)
	assert.Equal(t, "connection refused", st.Checks["redis"].Message)
	assert.True(t, st.Checks["postgres"].Healthy)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	c := NewCompositeHealthChecker("v1")
	c.SetTimeout(10 * time.Millisecond)
	c.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	st := c.Check(context.Background())
	assert.False(t, st.Healthy)
	assert.Contains(t, st.Checks["slow"].Message, "deadline")
}
