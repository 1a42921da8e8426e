package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() preshipmentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, preshipment *preshipmentdomain.Preshipment) error {
	items := preshipment.Items
	preshipment.Items = nil
	defer func() { preshipment.Items = items }()

	if err := db.WithContext(ctx).Create(preshipment).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByShipmentID(ctx context.Context, db *gorm.DB, shipmentID string) (*preshipmentdomain.Preshipment, error) {
	var preshipment preshipmentdomain.Preshipment
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("shipment_id = ?", shipmentID).
		Limit(1).
		Find(&preshipment).Error
	if err != nil {
		return nil, err
	}
	if preshipment.ID == 0 {
		return nil, nil
	}
	return &preshipment, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*preshipmentdomain.Preshipment, error) {
	var preshipment preshipmentdomain.Preshipment
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&preshipment).Error
	if err != nil {
		return nil, err
	}
	if preshipment.ID == 0 {
		return nil, nil
	}
	return &preshipment, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]preshipmentdomain.Preshipment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var preshipments []preshipmentdomain.Preshipment
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id IN ?", ids).
		Find(&preshipments).Error
	if err != nil {
		return nil, err
	}
	return preshipments, nil
}

func (r *repo) UpdateStage(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to preshipmentdomain.Stage, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE preshipments SET stage = ?, updated_at = ? WHERE id = ? AND stage = ?`,
		to, now, id, from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) MarkShipped(ctx context.Context, db *gorm.DB, id snowflake.ID, from preshipmentdomain.Stage, record preshipmentdomain.SignoffRecord, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE preshipments SET
			stage = ?, driver_name = ?, driver_license_number = ?, license_plate_number = ?,
			carrier_name = ?, signed_off_by = ?, signature_image = ?, shipped_at = ?, updated_at = ?
		WHERE id = ? AND stage = ?`,
		preshipmentdomain.StageShipped,
		record.DriverName,
		record.DriverLicenseNumber,
		record.LicensePlateNumber,
		record.CarrierName,
		record.SignedOffBy,
		record.SignatureImage,
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

func (r *repo) LinkEntrySummary(ctx context.Context, db *gorm.DB, req preshipmentdomain.LinkRequest, now time.Time) (bool, error) {
	if len(req.PreshipmentIDs) == 0 {
		return true, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE preshipments SET entry_summary_id = ?, entry_number = ?, entry_summary_status = ?, updated_at = ?
		WHERE id IN ? AND entry_summary_id IS NULL`,
		req.EntrySummaryID,
		req.EntryNumber,
		req.Status,
		now,
		req.PreshipmentIDs,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == int64(len(req.PreshipmentIDs)), nil
}

func (r *repo) UnlinkEntrySummary(ctx context.Context, db *gorm.DB, entrySummaryID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE preshipments SET entry_summary_id = NULL, entry_summary_status = NULL, updated_at = ?
		WHERE entry_summary_id = ?`,
		now,
		entrySummaryID,
	).Error
}
