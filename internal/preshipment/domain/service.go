package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateItemRequest struct {
	PartID          snowflake.ID    `json:"part_id"`
	LotID           *snowflake.ID   `json:"lot_id,omitempty"`
	Quantity        int64           `json:"quantity"`
	UnitValue       decimal.Decimal `json:"unit_value"`
	HTSCode         string          `json:"hts_code"`
	CountryOfOrigin string          `json:"country_of_origin"`
	Description     string          `json:"description"`
	DutyRate        decimal.Decimal `json:"duty_rate"`
}

type CreateRequest struct {
	ShipmentID       string              `json:"shipment_id"`
	CustomerID       snowflake.ID        `json:"customer_id"`
	PortOfEntry      string              `json:"port_of_entry"`
	FilerCode        string              `json:"filer_code"`
	ImporterOfRecord string              `json:"importer_of_record"`
	Consignee        string              `json:"consignee"`
	FTZID            string              `json:"ftz_id"`
	CarrierCode      string              `json:"carrier_code"`
	ModeOfTransport  string              `json:"mode_of_transport"`
	BillOfLading     string              `json:"bill_of_lading"`
	EntryNumber      string              `json:"entry_number,omitempty"`
	Items            []CreateItemRequest `json:"items"`
}

// SignoffRequest is the driver's hand-off data. The three required fields
// are reported by json name when absent.
type SignoffRequest struct {
	DriverName          string `json:"driver_name" validate:"required"`
	DriverLicenseNumber string `json:"driver_license_number" validate:"required"`
	LicensePlateNumber  string `json:"license_plate_number" validate:"required"`
	CarrierName         string `json:"carrier_name,omitempty"`
	SignedBy            string `json:"signed_by,omitempty"`
	// SignatureImage is a base64 payload or an image data URL.
	SignatureImage string `json:"signature_image,omitempty"`
}

// SignoffRecord is what the repository persists on sign-off.
type SignoffRecord struct {
	DriverName          string
	DriverLicenseNumber string
	LicensePlateNumber  string
	CarrierName         string
	SignedOffBy         string
	SignatureImage      *string
}

// LinkRequest attaches a built entry summary to preshipments.
type LinkRequest struct {
	PreshipmentIDs []snowflake.ID
	EntrySummaryID snowflake.ID
	EntryNumber    string
	Status         string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Preshipment, error)
	Get(ctx context.Context, shipmentID string) (Preshipment, error)
	TransitionStage(ctx context.Context, shipmentID string, target Stage) (Preshipment, error)
	FinalizeShipment(ctx context.Context, shipmentID string, req SignoffRequest) (Preshipment, error)
}

var (
	ErrNotFound               = errors.New("preshipment_not_found")
	ErrInvalidShipmentID      = errors.New("invalid_shipment_id")
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrInvalidItem            = errors.New("invalid_item")
	ErrDuplicateShipmentID    = errors.New("duplicate_shipment_id")
	ErrInvalidStage           = errors.New("invalid_stage")
	ErrInvalidTransition      = errors.New("invalid_transition")
	ErrStageConflict          = errors.New("stage_conflict")
	ErrInvalidStageForSignoff = errors.New("invalid_stage_for_signoff")
	ErrSignoffRequired        = errors.New("signoff_required")
	ErrMissingSignoffFields   = errors.New("missing_signoff_fields")
	ErrInvalidSignature       = errors.New("invalid_signature_image")
)
