package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/domain/shared"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to  Status
		wantPurge bool
		wantErr   bool
	}{
		{StatusPublishing, StatusDelete, false, false},
		{StatusDelete, StatusPublishing, false, false},
		{StatusPublishing, StatusRemove, true, false},
		{StatusDelete, StatusRemove, true, false},
		{StatusPublishing, StatusPublishing, false, false},
		{StatusRemove, StatusPublishing, false, true},
		{StatusPublishing, Status("ARCHIVED"), false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			purge, err := Transition(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPurge, purge)
		})
	}
}

func TestValidateCreatable(t *testing.T) {
	assert.NoError(t, ValidateCreatable(CategoryFree))
	assert.NoError(t, ValidateCreatable(CategoryNews))

	err := ValidateCreatable(CategoryHumor)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, shared.ClientMessage(err), "FREE")
}
