package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (Customer, error)
	// NamesByID resolves display names; unknown ids are absent from the map.
	NamesByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
}

var (
	ErrNotFound = errors.New("customer_not_found")
)
