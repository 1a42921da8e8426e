package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
	"gorm.io/gorm"
)

const (
	demoCustomerCode = "DEMO"
	demoCustomerName = "Demo Motors"
)

type demoPart struct {
	partNumber  string
	description string
	value       string
	hts         string
	country     string
	lotNumber   string
	quantity    int64
	zoneStatus  inventorydomain.ZoneStatus
}

var demoParts = []demoPart{
	{"BR-100", "steel bracket", "4.00", "8708.80.6590", "MX", "LOT-BR-100-1", 500, inventorydomain.ZoneStatusPrivilegedForeign},
	{"BL-7", "hex bolt", "0.35", "7318.15.2095", "CN", "LOT-BL-7-1", 5000, inventorydomain.ZoneStatusNonPrivilegedForeign},
}

// EnsureDemoMasterData seeds one customer and a few parts with zone lots
// so a fresh local database can run the outbound workflow end to end.
// Existing rows are left untouched.
func EnsureDemoMasterData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	now := time.Now().UTC()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCustomerTx(ctx, tx, node, now); err != nil {
			return err
		}
		for _, item := range demoParts {
			part, err := ensurePartTx(ctx, tx, node, item, now)
			if err != nil {
				return err
			}
			if err := ensureLotTx(ctx, tx, node, part.ID, item, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureCustomerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time) error {
	var existing customerdomain.Customer
	err := tx.WithContext(ctx).Where("code = ?", demoCustomerCode).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.WithContext(ctx).Create(&customerdomain.Customer{
		ID:        node.Generate(),
		Code:      demoCustomerCode,
		Name:      demoCustomerName,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func ensurePartTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, item demoPart, now time.Time) (partdomain.Part, error) {
	var part partdomain.Part
	err := tx.WithContext(ctx).Where("part_number = ?", item.partNumber).First(&part).Error
	if err == nil {
		return part, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return partdomain.Part{}, err
	}
	part = partdomain.Part{
		ID:              node.Generate(),
		PartNumber:      item.partNumber,
		Description:     item.description,
		StandardValue:   decimal.RequireFromString(item.value),
		HTSCode:         item.hts,
		CountryOfOrigin: item.country,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return part, tx.WithContext(ctx).Create(&part).Error
}

func ensureLotTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, partID snowflake.ID, item demoPart, now time.Time) error {
	var lot inventorydomain.Lot
	err := tx.WithContext(ctx).Where("lot_number = ?", item.lotNumber).First(&lot).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.WithContext(ctx).Create(&inventorydomain.Lot{
		ID:         node.Generate(),
		PartID:     partID,
		LotNumber:  item.lotNumber,
		Quantity:   item.quantity,
		Status:     inventorydomain.LotStatusActive,
		ZoneStatus: item.zoneStatus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error
}
