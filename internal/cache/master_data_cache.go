package cache

import (
	"time"

	"github.com/bwmarrin/snowflake"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
)

const (
	defaultPartTTL     = 10 * time.Minute
	defaultCustomerTTL = 10 * time.Minute
)

// MasterDataCache stores hot-path part and customer lookups used while
// building entry summaries. Both collections are read-only to this service.
type MasterDataCache interface {
	GetPart(id snowflake.ID) (partdomain.Part, bool)
	SetPart(part partdomain.Part)
	GetCustomerName(id snowflake.ID) (string, bool)
	SetCustomerName(id snowflake.ID, name string)
}

type masterDataCache struct {
	parts       Cache[snowflake.ID, partdomain.Part]
	customers   Cache[snowflake.ID, string]
	partTTL     time.Duration
	customerTTL time.Duration
}

// NewMasterDataCache returns an in-memory cache tuned for filing builds.
func NewMasterDataCache() MasterDataCache {
	return &masterDataCache{
		parts:       NewTTLCache[snowflake.ID, partdomain.Part](),
		customers:   NewTTLCache[snowflake.ID, string](),
		partTTL:     defaultPartTTL,
		customerTTL: defaultCustomerTTL,
	}
}

func (c *masterDataCache) GetPart(id snowflake.ID) (partdomain.Part, bool) {
	return c.parts.Get(id)
}

func (c *masterDataCache) SetPart(part partdomain.Part) {
	if part.ID == 0 {
		return
	}
	c.parts.Set(part.ID, part, c.partTTL)
}

func (c *masterDataCache) GetCustomerName(id snowflake.ID) (string, bool) {
	return c.customers.Get(id)
}

func (c *masterDataCache) SetCustomerName(id snowflake.ID, name string) {
	if id == 0 || name == "" {
		return
	}
	c.customers.Set(id, name, c.customerTTL)
}
