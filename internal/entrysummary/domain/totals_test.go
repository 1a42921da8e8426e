package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateGrandTotals(t *testing.T) {
	lines := []LineItem{
		{TotalValue: decimal.RequireFromString("1000.50"), DutyAmount: decimal.RequireFromString("25.01")},
		{TotalValue: decimal.RequireFromString("99.50"), DutyAmount: decimal.RequireFromString("4.99"), AntidumpingDutyAmount: decimal.NewFromInt(3)},
		{TotalValue: decimal.NewFromInt(0), CountervailingDutyAmount: decimal.RequireFromString("1.25")},
	}

	totals := CalculateGrandTotals(lines)
	assert.Equal(t, 3, totals.LineCount)
	assert.Equal(t, "1100.00", totals.TotalEnteredValue.StringFixed(2))
	assert.Equal(t, "30.00", totals.TotalDuty.StringFixed(2))
	assert.Equal(t, "3.00", totals.TotalAntidumpingDuty.StringFixed(2))
	assert.Equal(t, "1.25", totals.TotalCountervailingDuty.StringFixed(2))
	assert.True(t, totals.TotalUserFees.IsZero())
	assert.True(t, totals.TotalTaxes.IsZero())
	assert.Equal(t, "1130.00", totals.EstimatedTotal.StringFixed(2))

	again := CalculateGrandTotals(lines)
	assert.True(t, again.TotalEnteredValue.Equal(totals.TotalEnteredValue))
	assert.True(t, again.EstimatedTotal.Equal(totals.EstimatedTotal))
}

func TestCalculateGrandTotalsEmpty(t *testing.T) {
	totals := CalculateGrandTotals(nil)
	assert.Zero(t, totals.LineCount)
	assert.True(t, totals.EstimatedTotal.IsZero())
}

func TestDutyAmountRoundsToCents(t *testing.T) {
	assert.Equal(t, "3.33", DutyAmount(decimal.RequireFromString("133.3"), decimal.RequireFromString("0.025")).StringFixed(2))
}
