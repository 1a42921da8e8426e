package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Part is read-only master data used to value outbound merchandise.
type Part struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	PartNumber      string          `gorm:"type:text;not null;uniqueIndex" json:"part_number"`
	Description     string          `gorm:"type:text" json:"description"`
	StandardValue   decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"standard_value"`
	HTSCode         string          `gorm:"type:text" json:"hts_code"`
	CountryOfOrigin string          `gorm:"type:text" json:"country_of_origin"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Part) TableName() string { return "parts" }
