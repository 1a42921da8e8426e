package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() entrysummarydomain.Repository {
	return &repo{}
}

func (r *repo) InsertHeader(ctx context.Context, db *gorm.DB, summary *entrysummarydomain.EntrySummary) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(summary).Error
}

func (r *repo) InsertLineItems(ctx context.Context, db *gorm.DB, items []entrysummarydomain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(&items, 200).Error
}

func (r *repo) InsertFTZStatuses(ctx context.Context, db *gorm.DB, statuses []entrysummarydomain.FTZMerchandiseStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	return db.WithContext(ctx).CreateInBatches(&statuses, 200).Error
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, entrySummaryID snowflake.ID) ([]entrysummarydomain.LineItem, error) {
	var items []entrysummarydomain.LineItem
	err := db.WithContext(ctx).
		Where("entry_summary_id = ?", entrySummaryID).
		Order("line_number ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpsertGrandTotals(ctx context.Context, db *gorm.DB, totals *entrysummarydomain.GrandTotals) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_summary_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"line_count",
			"total_entered_value",
			"total_duty",
			"total_antidumping_duty",
			"total_countervailing_duty",
			"total_user_fees",
			"total_taxes",
			"estimated_total",
			"updated_at",
		}),
	}).Create(totals).Error
}

func (r *repo) FindByEntryNumber(ctx context.Context, db *gorm.DB, entryNumber string) (*entrysummarydomain.EntrySummary, error) {
	return r.findOne(ctx, db, "entry_number = ?", entryNumber)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*entrysummarydomain.EntrySummary, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*entrysummarydomain.EntrySummary, error) {
	var summary entrysummarydomain.EntrySummary
	err := db.WithContext(ctx).
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_number ASC") }).
		Preload("GrandTotals").
		Where(query, arg).
		Limit(1).
		Find(&summary).Error
	if err != nil {
		return nil, err
	}
	if summary.ID == 0 {
		return nil, nil
	}
	return &summary, nil
}

func (r *repo) DeleteByID(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			`DELETE FROM entry_ftz_statuses WHERE entry_summary_id = ?`,
			`DELETE FROM entry_grand_totals WHERE entry_summary_id = ?`,
			`DELETE FROM entry_line_items WHERE entry_summary_id = ?`,
			`DELETE FROM entry_summaries WHERE id = ?`,
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) NextSequence(ctx context.Context, db *gorm.DB, prefix string, now time.Time) (int64, error) {
	seed := entrysummarydomain.NumberSequence{Prefix: prefix, LastValue: 0, UpdatedAt: now}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}
	if err := db.WithContext(ctx).Exec(
		`UPDATE entry_number_sequences SET last_value = last_value + 1, updated_at = ? WHERE prefix = ?`,
		now, prefix,
	).Error; err != nil {
		return 0, err
	}

	var value int64
	if err := db.WithContext(ctx).
		Model(&entrysummarydomain.NumberSequence{}).
		Where("prefix = ?", prefix).
		Select("last_value").
		Scan(&value).Error; err != nil {
		return 0, err
	}
	return value, nil
}

func (r *repo) InsertGroup(ctx context.Context, db *gorm.DB, group *entrysummarydomain.Group) error {
	return db.WithContext(ctx).Create(group).Error
}

func (r *repo) FindGroup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*entrysummarydomain.Group, error) {
	var group entrysummarydomain.Group
	err := db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&group).Error
	if err != nil {
		return nil, err
	}
	if group.ID == 0 {
		return nil, nil
	}
	return &group, nil
}

func (r *repo) ApproveGroup(ctx context.Context, db *gorm.DB, id snowflake.ID, approver string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE entry_summary_groups SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		entrysummarydomain.GroupStatusApproved,
		approver,
		now,
		now,
		id,
		entrysummarydomain.GroupStatusReadyForReview,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkGroupFiled(ctx context.Context, db *gorm.DB, id snowflake.ID, from entrysummarydomain.GroupStatus, entrySummaryID snowflake.ID, filedBy string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE entry_summary_groups SET status = ?, entry_summary_id = ?, filed_by = ?, filed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		entrysummarydomain.GroupStatusFiled,
		entrySummaryID,
		filedBy,
		now,
		now,
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) RevertGroupFiled(ctx context.Context, db *gorm.DB, id snowflake.ID, entrySummaryID snowflake.ID, to entrysummarydomain.GroupStatus, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE entry_summary_groups SET status = ?, entry_summary_id = NULL, filed_by = NULL, filed_at = NULL, updated_at = ?
		WHERE id = ? AND entry_summary_id = ?`,
		to,
		now,
		id,
		entrySummaryID,
	).Error
}

func (r *repo) InsertGroupPreshipments(ctx context.Context, db *gorm.DB, members []entrysummarydomain.GroupPreshipment) error {
	if len(members) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&members).Error
}

func (r *repo) ListGroupPreshipmentIDs(ctx context.Context, db *gorm.DB, groupID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&entrysummarydomain.GroupPreshipment{}).
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Pluck("preshipment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
