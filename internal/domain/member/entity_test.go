package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankScore(t *testing.T) {
	m := &Member{Type: TypeDealer, Status: StatusActive, Watches: 3, Articles: 1, Likes: 2, Views: 5}
	assert.Equal(t, 27, m.RankScore())
	assert.True(t, m.IsRankable())
}

func TestIsRankable(t *testing.T) {
	assert.False(t, (&Member{Type: TypeUser, Status: StatusActive}).IsRankable())
	assert.False(t, (&Member{Type: TypeDealer, Status: StatusBlock}).IsRankable())
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())
	nick := "rolex_fan"
	assert.False(t, ProfileUpdate{Nick: &nick}.IsEmpty())
}
