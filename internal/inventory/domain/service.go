package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type DecrementRequest struct {
	LotID      snowflake.ID
	Quantity   int64
	SourceType string
	SourceID   snowflake.ID
	Reference  string
}

type DecrementResult struct {
	LotID            snowflake.ID
	PreviousQuantity int64
	NewQuantity      int64
	Exhausted        bool
	TransactionID    snowflake.ID
}

type Service interface {
	// Decrement lowers a lot by the shipped quantity, clamping at zero, and
	// records the paired ledger transaction atomically with the lot update.
	Decrement(ctx context.Context, req DecrementRequest) (DecrementResult, error)
	GetLots(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Lot, error)
}

var (
	ErrInvalidLot      = errors.New("invalid_lot")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidSource   = errors.New("invalid_source")
	ErrLotNotFound     = errors.New("lot_not_found")
)
