package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// NotAvailable stands in for a missing consolidation key component so that
// unclassified items still merge into a single bucket.
const NotAvailable = "N/A"

// ConsolidationSource is one member preshipment of a group.
type ConsolidationSource struct {
	PreshipmentID snowflake.ID
	CustomerName  string
	Items         []ConsolidationItem
}

type ConsolidationItem struct {
	HTSCode         string
	CountryOfOrigin string
	Description     string
	Quantity        int64
	TotalValue      decimal.Decimal
	DutyRate        decimal.Decimal
	DutyAmount      decimal.Decimal
}

// ConsolidatedLine is a merged line ready to persist.
type ConsolidatedLine struct {
	LineNumber            int
	HTSCode               string
	CountryOfOrigin       string
	Description           string
	Quantity              int64
	TotalValue            decimal.Decimal
	DutyRate              decimal.Decimal
	DutyAmount            decimal.Decimal
	SourcePreshipments    []string
	SourceCustomers       string
	ConsolidatedFromCount int

	customers []string
}

// UnitValue is the merged total divided by the merged quantity. It is
// informational; TotalValue is authoritative.
func (l ConsolidatedLine) UnitValue() decimal.Decimal {
	if l.Quantity == 0 {
		return decimal.Zero
	}
	return l.TotalValue.Div(decimal.NewFromInt(l.Quantity)).Round(4)
}

type consolidationKey struct {
	hts         string
	country     string
	description string
}

func keyOf(item ConsolidationItem) consolidationKey {
	return consolidationKey{
		hts:         orNotAvailable(FormatHTSCode(item.HTSCode)),
		country:     orNotAvailable(strings.ToUpper(strings.TrimSpace(item.CountryOfOrigin))),
		description: orNotAvailable(strings.TrimSpace(item.Description)),
	}
}

// ConsolidateLineItems merges items across sources by (HTS code, country of
// origin, description). Quantities and total values are summed; duty rate
// and duty amount are kept from the first item seen for a key. Lines are
// numbered 1..N in first-seen order.
func ConsolidateLineItems(sources []ConsolidationSource) []ConsolidatedLine {
	index := make(map[consolidationKey]int)
	lines := make([]ConsolidatedLine, 0)

	for _, source := range sources {
		preshipmentID := source.PreshipmentID.String()
		customer := strings.TrimSpace(source.CustomerName)

		for _, item := range source.Items {
			key := keyOf(item)
			pos, ok := index[key]
			if !ok {
				lines = append(lines, ConsolidatedLine{
					HTSCode:         key.hts,
					CountryOfOrigin: key.country,
					Description:     key.description,
					TotalValue:      decimal.Zero,
					DutyRate:        item.DutyRate,
					DutyAmount:      item.DutyAmount,
				})
				pos = len(lines) - 1
				index[key] = pos
			}

			line := &lines[pos]
			line.Quantity += item.Quantity
			line.TotalValue = line.TotalValue.Add(item.TotalValue)
			line.SourcePreshipments = append(line.SourcePreshipments, preshipmentID)
			line.ConsolidatedFromCount++
			if customer != "" && !contains(line.customers, customer) {
				line.customers = append(line.customers, customer)
			}
		}
	}

	for i := range lines {
		lines[i].LineNumber = i + 1
		lines[i].SourceCustomers = strings.Join(lines[i].customers, ", ")
	}
	return lines
}

func orNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}
	return value
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
