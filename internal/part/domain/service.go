package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Resolve loads parts by id; ids that do not resolve are absent from the map.
	Resolve(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Part, error)
}
