package domain

import "github.com/shopspring/decimal"

// CalculateGrandTotals aggregates the current line items of one entry
// summary at line precision, so each total equals the sum of its line
// column. User fees and taxes are zero for zone filings.
func CalculateGrandTotals(lines []LineItem) GrandTotals {
	entered := decimal.Zero
	duty := decimal.Zero
	antidumping := decimal.Zero
	countervailing := decimal.Zero
	for _, line := range lines {
		entered = entered.Add(line.TotalValue)
		duty = duty.Add(line.DutyAmount)
		antidumping = antidumping.Add(line.AntidumpingDutyAmount)
		countervailing = countervailing.Add(line.CountervailingDutyAmount)
	}

	totals := GrandTotals{
		LineCount:               len(lines),
		TotalEnteredValue:       entered,
		TotalDuty:               duty,
		TotalAntidumpingDuty:    antidumping,
		TotalCountervailingDuty: countervailing,
		TotalUserFees:           decimal.Zero,
		TotalTaxes:              decimal.Zero,
	}
	totals.EstimatedTotal = totals.TotalEnteredValue.Add(totals.TotalDuty)
	return totals
}

// DutyAmount is value times rate rounded to cents.
func DutyAmount(value, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(value.Mul(rate))
}

// RoundMoney rounds a filed amount to cents.
func RoundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// EnteredValue is unit value times quantity rounded to cents.
func EnteredValue(unitValue decimal.Decimal, quantity int64) decimal.Decimal {
	return RoundMoney(unitValue.Mul(decimal.NewFromInt(quantity)))
}
