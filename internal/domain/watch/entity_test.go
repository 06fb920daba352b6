package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/domain/shared"
)

func TestRankScore(t *testing.T) {
	w := &Watch{Likes: 4, Views: 10}
	assert.Equal(t, 18, w.RankScore())
}

func TestTransitionTo_StampsAndReleases(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	w := &Watch{Status: StatusActive}
	res, err := w.TransitionTo(StatusSold, now)
	require.NoError(t, err)
	assert.True(t, res.ReleasesOwnerSlot)
	assert.Equal(t, StatusSold, w.Status)
	require.NotNil(t, w.SoldAt)
	assert.Equal(t, now, *w.SoldAt)

	w = &Watch{Status: StatusHold}
	res, err = w.TransitionTo(StatusDelete, now)
	require.NoError(t, err)
	assert.True(t, res.ReleasesOwnerSlot)
	require.NotNil(t, w.DeletedAt)

	w = &Watch{Status: StatusActive}
	res, err = w.TransitionTo(StatusHold, now)
	require.NoError(t, err)
	assert.False(t, res.ReleasesOwnerSlot)
}

func TestTransitionTo_Rejected(t *testing.T) {
	now := time.Now()

	for _, tc := range []struct{ from, to Status }{
		{StatusSold, StatusActive},
		{StatusDelete, StatusActive},
		{StatusHold, StatusSold},
		{StatusActive, Status("LOST")},
	} {
		w := &Watch{Status: tc.from}
		_, err := w.TransitionTo(tc.to, now)
		require.Error(t, err, "%s -> %s", tc.from, tc.to)
		assert.True(t, shared.IsValidation(err))
		assert.Equal(t, tc.from, w.Status)
	}
}

func TestTransitionTo_SameStatusIsNoop(t *testing.T) {
	w := &Watch{Status: StatusActive}
	res, err := w.TransitionTo(StatusActive, time.Now())
	require.NoError(t, err)
	assert.False(t, res.ReleasesOwnerSlot)
	assert.Nil(t, w.SoldAt)
}

func TestCounterZeroValue(t *testing.T) {
	var c Counter
	assert.True(t, c.IsZero())
	assert.False(t, CounterLikes.IsZero())
	assert.Equal(t, "watch_likes", CounterLikes.Column())
	assert.Equal(t, "watchLikes", CounterLikes.String())
}
