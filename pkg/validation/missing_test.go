package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestMissing = errors.New("test_missing")

type signer struct {
	Name    string `json:"name" validate:"required"`
	License string `json:"license" validate:"required"`
	Plate   string `json:"plate" validate:"required"`
	Note    string `json:"note"`
}

func TestFromValidatorNamesJSONFields(t *testing.T) {
	err := FromValidator(errTestMissing, New().Struct(signer{Name: "Ana"}))
	require.Error(t, err)

	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"license", "plate"}, missing.Fields)
	assert.ErrorIs(t, err, errTestMissing)
	assert.Equal(t, "test_missing: license, plate", err.Error())
}

func TestMissingWithNoFieldsIsNil(t *testing.T) {
	assert.NoError(t, Missing(errTestMissing))
	assert.NoError(t, FromValidator(errTestMissing, New().Struct(signer{Name: "a", License: "b", Plate: "c"})))
}
