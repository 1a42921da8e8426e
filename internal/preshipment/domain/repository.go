package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, preshipment *Preshipment) error
	FindByShipmentID(ctx context.Context, db *gorm.DB, shipmentID string) (*Preshipment, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Preshipment, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Preshipment, error)
	// UpdateStage moves id from -> to only if the row is still in from.
	UpdateStage(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Stage, now time.Time) (bool, error)
	MarkShipped(ctx context.Context, db *gorm.DB, id snowflake.ID, from Stage, record SignoffRecord, now time.Time) (bool, error)
	// LinkEntrySummary attaches the summary to every listed preshipment that
	// has none yet. It reports false unless all of them were linked.
	LinkEntrySummary(ctx context.Context, db *gorm.DB, req LinkRequest, now time.Time) (bool, error)
	// UnlinkEntrySummary clears the back-reference from preshipments that
	// point at entrySummaryID.
	UnlinkEntrySummary(ctx context.Context, db *gorm.DB, entrySummaryID snowflake.ID, now time.Time) error
}
