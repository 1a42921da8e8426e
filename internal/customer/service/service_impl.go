package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/ftzflow/internal/cache"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	"github.com/smallbiznis/ftzflow/pkg/db/option"
	"github.com/smallbiznis/ftzflow/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cache cache.MasterDataCache `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	customers repository.Repository[customerdomain.Customer]
	cache     cache.MasterDataCache
}

func New(p Params) customerdomain.Service {
	return &Service{
		log:       p.Log.Named("customer.service"),
		customers: repository.ProvideStore[customerdomain.Customer](p.DB),
		cache:     p.Cache,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (customerdomain.Customer, error) {
	item, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}
	if item == nil {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) NamesByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	names := make(map[snowflake.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	misses := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if s.cache != nil {
			if name, ok := s.cache.GetCustomerName(id); ok {
				names[id] = name
				continue
			}
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return names, nil
	}

	items, err := s.customers.FindByIDs(ctx, misses, option.WithSelect("id", "name"))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		names[item.ID] = item.Name
		if s.cache != nil {
			s.cache.SetCustomerName(item.ID, item.Name)
		}
	}
	if len(names) < len(ids) {
		s.log.Debug("some customers could not be resolved",
			zap.Int("requested", len(ids)),
			zap.Int("resolved", len(names)),
		)
	}
	return names, nil
}
