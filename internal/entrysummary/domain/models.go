// Package domain contains the customs entry-summary models and the pure
// consolidation and totals rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type FilingStatus string

const (
	FilingStatusDraft    FilingStatus = "DRAFT"
	FilingStatusFiled    FilingStatus = "FILED"
	FilingStatusAccepted FilingStatus = "ACCEPTED"
	FilingStatusRejected FilingStatus = "REJECTED"
)

type GroupStatus string

const (
	GroupStatusReadyForReview GroupStatus = "ready_for_review"
	GroupStatusApproved       GroupStatus = "approved"
	GroupStatusFiled          GroupStatus = "filed"
)

// Buildable reports whether a group may be turned into a filing.
func (s GroupStatus) Buildable() bool {
	return s == GroupStatusReadyForReview || s == GroupStatusApproved
}

const (
	ConsolidatedIndicatorYes = "Y"
	ConsolidatedIndicatorNo  = "N"
)

// EntrySummary is one customs filing header. Exactly one of PreshipmentID
// or GroupID is set.
type EntrySummary struct {
	ID                           snowflake.ID  `gorm:"primaryKey" json:"id"`
	EntryNumber                  string        `gorm:"type:text;not null;uniqueIndex" json:"entry_number"`
	EntryType                    string        `gorm:"type:text;not null" json:"entry_type"`
	FilerCode                    string        `gorm:"type:text;not null" json:"filer_code"`
	PortOfEntry                  string        `gorm:"type:text;not null" json:"port_of_entry"`
	ImporterOfRecord             string        `gorm:"type:text;not null" json:"importer_of_record"`
	Consignee                    string        `gorm:"type:text" json:"consignee"`
	FTZID                        string        `gorm:"column:ftz_id;type:text" json:"ftz_id"`
	CarrierCode                  string        `gorm:"type:text" json:"carrier_code,omitempty"`
	ModeOfTransport              string        `gorm:"type:text" json:"mode_of_transport,omitempty"`
	BillOfLading                 string        `gorm:"type:text" json:"bill_of_lading,omitempty"`
	FilingStatus                 FilingStatus  `gorm:"type:text;not null;default:'DRAFT'" json:"filing_status"`
	ConsolidatedSummaryIndicator string        `gorm:"type:text;not null;default:'N'" json:"consolidated_summary_indicator"`
	PreshipmentID                *snowflake.ID `gorm:"index" json:"preshipment_id,omitempty"`
	GroupID                      *snowflake.ID `gorm:"index" json:"group_id,omitempty"`
	CreatedBy                    string        `gorm:"type:text" json:"created_by,omitempty"`
	CreatedAt                    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	LineItems   []LineItem   `gorm:"foreignKey:EntrySummaryID;constraint:OnDelete:CASCADE" json:"line_items,omitempty"`
	GrandTotals *GrandTotals `gorm:"foreignKey:EntrySummaryID;constraint:OnDelete:CASCADE" json:"grand_totals,omitempty"`
}

func (EntrySummary) TableName() string { return "entry_summaries" }

// LineItem is one numbered line of a filing. The source fields are only
// populated for consolidated filings.
type LineItem struct {
	ID                       snowflake.ID                `gorm:"primaryKey" json:"id"`
	EntrySummaryID           snowflake.ID                `gorm:"not null;uniqueIndex:ux_entry_line_number,priority:1" json:"entry_summary_id"`
	LineNumber               int                         `gorm:"not null;uniqueIndex:ux_entry_line_number,priority:2" json:"line_number"`
	PartID                   *snowflake.ID               `json:"part_id,omitempty"`
	HTSCode                  string                      `gorm:"column:hts_code;type:text" json:"hts_code"`
	CountryOfOrigin          string                      `gorm:"type:text" json:"country_of_origin"`
	Description              string                      `gorm:"type:text" json:"description"`
	Quantity                 int64                       `gorm:"not null" json:"quantity"`
	UnitValue                decimal.Decimal             `gorm:"type:numeric(18,4);not null;default:0" json:"unit_value"`
	TotalValue               decimal.Decimal             `gorm:"type:numeric(18,4);not null;default:0" json:"total_value"`
	DutyRate                 decimal.Decimal             `gorm:"type:numeric(9,6);not null;default:0" json:"duty_rate"`
	DutyAmount               decimal.Decimal             `gorm:"type:numeric(18,2);not null;default:0" json:"duty_amount"`
	AntidumpingDutyAmount    decimal.Decimal             `gorm:"type:numeric(18,2);not null;default:0" json:"antidumping_duty_amount"`
	CountervailingDutyAmount decimal.Decimal             `gorm:"type:numeric(18,2);not null;default:0" json:"countervailing_duty_amount"`
	SourcePreshipments       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"source_preshipments,omitempty"`
	SourceCustomers          string                      `gorm:"type:text" json:"source_customers,omitempty"`
	ConsolidatedFromCount    int                         `gorm:"not null;default:0" json:"consolidated_from_count,omitempty"`
	CreatedAt                time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LineItem) TableName() string { return "entry_line_items" }

// FTZMerchandiseStatus records the zone status claimed for a line.
type FTZMerchandiseStatus struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	EntrySummaryID snowflake.ID  `gorm:"not null;index" json:"entry_summary_id"`
	LineItemID     snowflake.ID  `gorm:"not null;uniqueIndex" json:"line_item_id"`
	ZoneStatus     string        `gorm:"type:text;not null" json:"zone_status"`
	LotID          *snowflake.ID `json:"lot_id,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FTZMerchandiseStatus) TableName() string { return "entry_ftz_statuses" }

// GrandTotals is derived from the line items and is never edited directly.
type GrandTotals struct {
	ID                      snowflake.ID    `gorm:"primaryKey" json:"id"`
	EntrySummaryID          snowflake.ID    `gorm:"not null;uniqueIndex" json:"entry_summary_id"`
	LineCount               int             `gorm:"not null;default:0" json:"line_count"`
	TotalEnteredValue       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_entered_value"`
	TotalDuty               decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_duty"`
	TotalAntidumpingDuty    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_antidumping_duty"`
	TotalCountervailingDuty decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_countervailing_duty"`
	TotalUserFees           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_user_fees"`
	TotalTaxes              decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_taxes"`
	EstimatedTotal          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"estimated_total"`
	UpdatedAt               time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (GrandTotals) TableName() string { return "entry_grand_totals" }

// Group batches preshipments into one consolidated filing.
type Group struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name           string        `gorm:"type:text;not null" json:"name"`
	FilerCode      string        `gorm:"type:text" json:"filer_code"`
	PortOfEntry    string        `gorm:"type:text" json:"port_of_entry"`
	FTZID          string        `gorm:"column:ftz_id;type:text" json:"ftz_id"`
	TargetDate     *time.Time    `json:"target_date,omitempty"`
	Status         GroupStatus   `gorm:"type:text;not null;default:'ready_for_review';index" json:"status"`
	ApprovedBy     string        `gorm:"type:text" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time    `json:"approved_at,omitempty"`
	FiledBy        string        `gorm:"type:text" json:"filed_by,omitempty"`
	FiledAt        *time.Time    `json:"filed_at,omitempty"`
	EntrySummaryID *snowflake.ID `json:"entry_summary_id,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Group) TableName() string { return "entry_summary_groups" }

// GroupPreshipment joins a preshipment to a group with stats captured when
// it was assigned.
type GroupPreshipment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	GroupID       snowflake.ID    `gorm:"not null;uniqueIndex:ux_group_preshipment,priority:1" json:"group_id"`
	PreshipmentID snowflake.ID    `gorm:"not null;uniqueIndex:ux_group_preshipment,priority:2" json:"preshipment_id"`
	ItemCount     int             `gorm:"not null;default:0" json:"item_count"`
	TotalQuantity int64           `gorm:"not null;default:0" json:"total_quantity"`
	TotalValue    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"total_value"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (GroupPreshipment) TableName() string { return "entry_group_preshipments" }

// NumberSequence is the last entry number issued for a prefix.
type NumberSequence struct {
	Prefix    string    `gorm:"primaryKey;type:text" json:"prefix"`
	LastValue int64     `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (NumberSequence) TableName() string { return "entry_number_sequences" }
