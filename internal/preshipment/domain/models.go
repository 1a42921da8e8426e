// Package domain contains the preshipment models and stage workflow.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Preshipment is an outbound shipment tracked through staging. Rows are
// never deleted; Shipped preshipments remain for audit.
type Preshipment struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	ShipmentID       string       `gorm:"type:text;not null;uniqueIndex" json:"shipment_id"`
	CustomerID       snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Stage            Stage        `gorm:"type:text;not null;default:'Planning';index" json:"stage"`
	PortOfEntry      string       `gorm:"type:text" json:"port_of_entry"`
	FilerCode        string       `gorm:"type:text" json:"filer_code"`
	ImporterOfRecord string       `gorm:"type:text" json:"importer_of_record"`
	Consignee        string       `gorm:"type:text" json:"consignee"`
	FTZID            string       `gorm:"column:ftz_id;type:text" json:"ftz_id"`
	CarrierCode      string       `gorm:"type:text" json:"carrier_code"`
	ModeOfTransport  string       `gorm:"type:text" json:"mode_of_transport"`
	BillOfLading     string       `gorm:"type:text" json:"bill_of_lading"`

	EntryNumber        *string       `gorm:"type:text" json:"entry_number,omitempty"`
	EntrySummaryID     *snowflake.ID `gorm:"index" json:"entry_summary_id,omitempty"`
	EntrySummaryStatus *string       `gorm:"type:text" json:"entry_summary_status,omitempty"`

	DriverName          string     `gorm:"type:text" json:"driver_name,omitempty"`
	DriverLicenseNumber string     `gorm:"type:text" json:"-"`
	LicensePlateNumber  string     `gorm:"type:text" json:"license_plate_number,omitempty"`
	CarrierName         string     `gorm:"type:text" json:"carrier_name,omitempty"`
	SignatureImage      *string    `gorm:"type:text" json:"-"`
	SignedOffBy         string     `gorm:"type:text" json:"signed_off_by,omitempty"`
	ShippedAt           *time.Time `json:"shipped_at,omitempty"`

	Items []PreshipmentItem `gorm:"foreignKey:PreshipmentID" json:"items"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Preshipment) TableName() string { return "preshipments" }

// PreshipmentItem is one outbound line; order carries no meaning.
type PreshipmentItem struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	PreshipmentID   snowflake.ID    `gorm:"not null;index" json:"preshipment_id"`
	PartID          snowflake.ID    `gorm:"not null;index" json:"part_id"`
	LotID           *snowflake.ID   `gorm:"index" json:"lot_id,omitempty"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	UnitValue       decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"unit_value"`
	HTSCode         string          `gorm:"column:hts_code;type:text" json:"hts_code"`
	CountryOfOrigin string          `gorm:"type:text" json:"country_of_origin"`
	Description     string          `gorm:"type:text" json:"description"`
	DutyRate        decimal.Decimal `gorm:"type:numeric(9,6);not null;default:0" json:"duty_rate"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PreshipmentItem) TableName() string { return "preshipment_items" }

// TotalValue is unit value times quantity.
func (i PreshipmentItem) TotalValue() decimal.Decimal {
	return i.UnitValue.Mul(decimal.NewFromInt(i.Quantity))
}
