package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaging_Offset(t *testing.T) {
	assert.Equal(t, 0, Paging{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 10, Paging{Page: 2, Limit: 10}.Offset())
	assert.Equal(t, 20, Paging{Page: 3, Limit: 10}.Offset())
}

func TestPaging_Normalize(t *testing.T) {
	p := Paging{Page: 1, Limit: 5}.Normalize()
	assert.Equal(t, DefaultSort, p.Sort)
	assert.Equal(t, Desc, p.Direction)

	p = Paging{Page: 1, Limit: 5, Sort: "watchPrice", Direction: "asc"}.Normalize()
	assert.Equal(t, "watchPrice", p.Sort)
	assert.Equal(t, Asc, p.Direction)
}

func TestPaging_Validate(t *testing.T) {
	allowed := []string{"createdAt", "watchPrice"}

	assert.NoError(t, Paging{Page: 1, Limit: 10, Sort: "createdAt", Direction: Desc}.Validate("watch", allowed, 100))
	assert.NoError(t, Paging{Page: MaxPage, Limit: 100, Sort: "createdAt", Direction: Desc}.Validate("watch", allowed, 100))

	cases := map[string]Paging{
		"zero page":     {Page: 0, Limit: 10, Sort: "createdAt", Direction: Desc},
		"page too big":  {Page: MaxPage + 1, Limit: 10, Sort: "createdAt", Direction: Desc},
		"zero limit":    {Page: 1, Limit: 0, Sort: "createdAt", Direction: Desc},
		"limit too big": {Page: 1, Limit: 500, Sort: "createdAt", Direction: Desc},
		"bad direction": {Page: 1, Limit: 10, Sort: "createdAt", Direction: "UP"},
		"unknown sort":  {Page: 1, Limit: 10, Sort: "memberPassword", Direction: Desc},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.Validate("watch", allowed, 100)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("watch", "watchId", NewID()))
	assert.True(t, IsValidation(ValidateID("watch", "watchId", "")))
	assert.True(t, IsValidation(ValidateID("watch", "watchId", "not-a-uuid")))
}
