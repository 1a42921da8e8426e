package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ftzflow/internal/clock"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	"github.com/smallbiznis/ftzflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	lots         repository.Repository[inventorydomain.Lot]
	transactions repository.Repository[inventorydomain.Transaction]
}

func NewService(p Params) inventorydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
		clock: p.Clock,

		lots:         repository.ProvideStore[inventorydomain.Lot](p.DB),
		transactions: repository.ProvideStore[inventorydomain.Transaction](p.DB),
	}
}

func (s *Service) Decrement(ctx context.Context, req inventorydomain.DecrementRequest) (inventorydomain.DecrementResult, error) {
	if req.LotID == 0 {
		return inventorydomain.DecrementResult{}, inventorydomain.ErrInvalidLot
	}
	if req.Quantity <= 0 {
		return inventorydomain.DecrementResult{}, inventorydomain.ErrInvalidQuantity
	}
	sourceType := strings.TrimSpace(req.SourceType)
	if sourceType == "" || req.SourceID == 0 {
		return inventorydomain.DecrementResult{}, inventorydomain.ErrInvalidSource
	}

	var result inventorydomain.DecrementResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lot, err := s.lots.WithTrx(tx).LockByID(ctx, req.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return inventorydomain.ErrLotNotFound
		}

		newQuantity := lot.Quantity - req.Quantity
		if newQuantity < 0 {
			newQuantity = 0
		}
		status := lot.Status
		if newQuantity == 0 {
			status = inventorydomain.LotStatusExhausted
		}

		now := s.clock.Now()
		if _, err := s.lots.WithTrx(tx).Update(ctx, lot.ID, map[string]any{
			"quantity":   newQuantity,
			"status":     status,
			"updated_at": now,
		}); err != nil {
			return err
		}

		entry := inventorydomain.Transaction{
			ID:             s.genID.Generate(),
			LotID:          lot.ID,
			Type:           inventorydomain.TransactionTypeShipment,
			QuantityChange: newQuantity - lot.Quantity,
			QuantityAfter:  newQuantity,
			SourceType:     sourceType,
			SourceID:       req.SourceID,
			Reference:      strings.TrimSpace(req.Reference),
			CreatedAt:      now,
		}
		if err := s.transactions.WithTrx(tx).Create(ctx, &entry); err != nil {
			return err
		}

		result = inventorydomain.DecrementResult{
			LotID:            lot.ID,
			PreviousQuantity: lot.Quantity,
			NewQuantity:      newQuantity,
			Exhausted:        status == inventorydomain.LotStatusExhausted,
			TransactionID:    entry.ID,
		}
		return nil
	})
	if err != nil {
		return inventorydomain.DecrementResult{}, err
	}

	if req.Quantity > result.PreviousQuantity {
		s.log.Warn("shipped quantity exceeds lot balance, clamped to zero",
			zap.String("lot_id", req.LotID.String()),
			zap.Int64("shipped", req.Quantity),
			zap.Int64("previous", result.PreviousQuantity),
		)
	}
	return result, nil
}

func (s *Service) GetLots(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]inventorydomain.Lot, error) {
	out := make(map[snowflake.ID]inventorydomain.Lot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	items, err := s.lots.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		out[item.ID] = *item
	}
	return out, nil
}
