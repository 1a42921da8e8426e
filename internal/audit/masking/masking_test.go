package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskIdentifier(t *testing.T) {
	assert.Equal(t, "", MaskIdentifier("  "))
	assert.Equal(t, "****", MaskIdentifier("AB1"))
	assert.Equal(t, "****5678", MaskIdentifier("D1234-5678"))
}

func TestMaskFieldsOnlyTouchesNamedStringKeys(t *testing.T) {
	out := MaskFields(map[string]any{
		"driver_name":           "Rosa Diaz",
		"driver_license_number": "TX99887766",
		"quantity":              12,
	}, "driver_license_number", "quantity")

	assert.Equal(t, "Rosa Diaz", out["driver_name"])
	assert.Equal(t, "****7766", out["driver_license_number"])
	assert.Equal(t, 12, out["quantity"])
}

func TestRedactDropsSignature(t *testing.T) {
	out := Redact(map[string]any{
		"license_plate_number": "7ABC123",
		"signature_image":      "iVBORw0KGgo=",
		"carrier_name":         "Gulf Freight",
	})

	assert.Equal(t, "****C123", out["license_plate_number"])
	assert.Equal(t, "Gulf Freight", out["carrier_name"])
	assert.NotContains(t, out, "signature_image")
	assert.Nil(t, Redact(nil))
}
