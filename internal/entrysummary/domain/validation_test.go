package domain

import (
	"errors"
	"testing"
	"time"

	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"github.com/smallbiznis/ftzflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePreshipmentListsEveryMissingField(t *testing.T) {
	err := ValidatePreshipment(preshipmentdomain.Preshipment{FilerCode: "ABC"})
	require.ErrorIs(t, err, ErrMissingFilingFields)

	var missing *validation.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"port_of_entry", "importer_of_record", "consignee", "items"}, missing.Fields)
}

func TestValidatePreshipmentPasses(t *testing.T) {
	err := ValidatePreshipment(preshipmentdomain.Preshipment{
		PortOfEntry:      "2304",
		FilerCode:        "ABC",
		ImporterOfRecord: "12-3456789",
		Consignee:        "Acme",
		Items:            []preshipmentdomain.PreshipmentItem{{Quantity: 1}},
	})
	assert.NoError(t, err)
}

func TestFormatEntryNumber(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "FTZ250000042", FormatEntryNumber("ftz", at, 42))
}

func TestGroupStatusBuildable(t *testing.T) {
	assert.True(t, GroupStatusReadyForReview.Buildable())
	assert.True(t, GroupStatusApproved.Buildable())
	assert.False(t, GroupStatusFiled.Buildable())
}
