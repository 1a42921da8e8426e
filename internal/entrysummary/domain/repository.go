package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertHeader(ctx context.Context, db *gorm.DB, summary *EntrySummary) error
	InsertLineItems(ctx context.Context, db *gorm.DB, items []LineItem) error
	InsertFTZStatuses(ctx context.Context, db *gorm.DB, statuses []FTZMerchandiseStatus) error
	ListLineItems(ctx context.Context, db *gorm.DB, entrySummaryID snowflake.ID) ([]LineItem, error)
	// UpsertGrandTotals replaces the totals row of an entry summary.
	UpsertGrandTotals(ctx context.Context, db *gorm.DB, totals *GrandTotals) error
	FindByEntryNumber(ctx context.Context, db *gorm.DB, entryNumber string) (*EntrySummary, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*EntrySummary, error)
	// DeleteByID removes a header and its children. Deleting a missing id
	// is not an error.
	DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	NextSequence(ctx context.Context, db *gorm.DB, prefix string, now time.Time) (int64, error)

	InsertGroup(ctx context.Context, db *gorm.DB, group *Group) error
	FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Group, error)
	ApproveGroup(ctx context.Context, db *gorm.DB, id snowflake.ID, approver string, now time.Time) (bool, error)
	MarkGroupFiled(ctx context.Context, db *gorm.DB, id snowflake.ID, from GroupStatus, entrySummaryID snowflake.ID, filedBy string, now time.Time) (bool, error)
	// RevertGroupFiled undoes MarkGroupFiled, only while the group still
	// points at entrySummaryID.
	RevertGroupFiled(ctx context.Context, db *gorm.DB, id snowflake.ID, entrySummaryID snowflake.ID, to GroupStatus, now time.Time) error
	InsertGroupPreshipments(ctx context.Context, db *gorm.DB, members []GroupPreshipment) error
	ListGroupPreshipmentIDs(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]snowflake.ID, error)
}
