package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ftzflow/internal/cache"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
	"github.com/smallbiznis/ftzflow/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Cache cache.MasterDataCache `optional:"true"`
}

type Service struct {
	parts repository.Repository[partdomain.Part]
	cache cache.MasterDataCache
}

func New(p Params) partdomain.Service {
	return &Service{
		parts: repository.ProvideStore[partdomain.Part](p.DB),
		cache: p.Cache,
	}
}

func (s *Service) Resolve(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]partdomain.Part, error) {
	out := make(map[snowflake.ID]partdomain.Part, len(ids))
	misses := make([]snowflake.ID, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if s.cache != nil {
			if part, ok := s.cache.GetPart(id); ok {
				out[id] = part
				continue
			}
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	items, err := s.parts.FindByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		out[item.ID] = *item
		if s.cache != nil {
			s.cache.SetPart(*item)
		}
	}
	return out, nil
}

func uniqueIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
