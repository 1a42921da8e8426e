// Package domain contains persistence models for zone inventory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type LotStatus string

const (
	LotStatusActive    LotStatus = "active"
	LotStatusExhausted LotStatus = "exhausted"
)

// ZoneStatus is the FTZ merchandise status of a lot (19 CFR 146).
type ZoneStatus string

const (
	ZoneStatusPrivilegedForeign    ZoneStatus = "P"
	ZoneStatusNonPrivilegedForeign ZoneStatus = "N"
	ZoneStatusDomestic             ZoneStatus = "D"
	ZoneStatusZoneRestricted       ZoneStatus = "Z"
)

func (z ZoneStatus) Valid() bool {
	switch z {
	case ZoneStatusPrivilegedForeign, ZoneStatusNonPrivilegedForeign, ZoneStatusDomestic, ZoneStatusZoneRestricted:
		return true
	default:
		return false
	}
}

// Lot is a quantity of one part admitted into the zone.
type Lot struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	PartID     snowflake.ID `gorm:"not null;index" json:"part_id"`
	LotNumber  string       `gorm:"type:text;not null;uniqueIndex" json:"lot_number"`
	Quantity   int64        `gorm:"not null;default:0" json:"quantity"`
	Status     LotStatus    `gorm:"type:text;not null;default:'active'" json:"status"`
	ZoneStatus ZoneStatus   `gorm:"type:text" json:"zone_status,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Lot) TableName() string { return "inventory_lots" }

type TransactionType string

const (
	TransactionTypeShipment TransactionType = "shipment"
)

// Transaction is the immutable ledger line paired with every lot quantity change.
type Transaction struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	LotID          snowflake.ID    `gorm:"not null;index" json:"lot_id"`
	Type           TransactionType `gorm:"type:text;not null" json:"type"`
	QuantityChange int64           `gorm:"not null" json:"quantity_change"`
	QuantityAfter  int64           `gorm:"not null" json:"quantity_after"`
	SourceType     string          `gorm:"type:text;not null;index:ix_inventory_tx_source,priority:1" json:"source_type"`
	SourceID       snowflake.ID    `gorm:"not null;index:ix_inventory_tx_source,priority:2" json:"source_id"`
	Reference      string          `gorm:"type:text" json:"reference,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Transaction) TableName() string { return "inventory_transactions" }
