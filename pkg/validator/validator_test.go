package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Name string `validate:"required,min=2"`
	Mode string `validate:"oneof=store memory"`
	Port int    `validate:"gte=1,lte=65535"`
}

func TestValidate_OK(t *testing.T) {
	err := Validate(sampleInput{Name: "gachagetcha", Mode: "store", Port: 8080})
	assert.NoError(t, err)
}

func TestValidate_CollectsFields(t *testing.T) {
	err := Validate(sampleInput{Mode: "hybrid", Port: 0})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Name"])
	assert.Equal(t, "must be one of: store memory", fields["Mode"])
	assert.Equal(t, "must be greater than or equal to 1", fields["Port"])
	assert.Contains(t, err.Error(), "field 'Name' is required")
}
