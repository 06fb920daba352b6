package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timory/timory-hub/internal/domain/shared"
)

func TestUpdate_Validate(t *testing.T) {
	bad := Type("SUNDIAL")
	neg := -1.0
	empty := ""

	assert.NoError(t, Update{}.Validate())
	for _, u := range []Update{{Type: &bad}, {Price: &neg}, {ModelName: &empty}} {
		err := u.Validate()
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	}
}

func TestApply(t *testing.T) {
	price := 12500.0
	name := "Speedmaster"
	w := &Watch{ModelName: "Seamaster", Price: 9000, Images: []string{"a.jpg"}}

	upd := Update{Price: &price, ModelName: &name}
	assert.False(t, upd.IsEmpty())
	w.Apply(upd)

	assert.Equal(t, "Speedmaster", w.ModelName)
	assert.Equal(t, 12500.0, w.Price)
	assert.Equal(t, []string{"a.jpg"}, w.Images)
	assert.True(t, Update{}.IsEmpty())
}
