package cache

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	partdomain "github.com/smallbiznis/ftzflow/internal/part/domain"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	c.Set("forever", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	c.Delete("forever")
	_, ok = c.Get("forever")
	assert.False(t, ok)
}

func TestMasterDataCacheIgnoresEmptyValues(t *testing.T) {
	c := NewMasterDataCache()

	c.SetPart(partdomain.Part{})
	c.SetCustomerName(snowflake.ID(7), "")
	_, ok := c.GetPart(0)
	assert.False(t, ok)
	_, ok = c.GetCustomerName(7)
	assert.False(t, ok)

	part := partdomain.Part{ID: 9, PartNumber: "BR-100", StandardValue: decimal.RequireFromString("4.00")}
	c.SetPart(part)
	c.SetCustomerName(7, "Acme Motors")

	got, ok := c.GetPart(9)
	assert.True(t, ok)
	assert.Equal(t, "BR-100", got.PartNumber)
	name, ok := c.GetCustomerName(7)
	assert.True(t, ok)
	assert.Equal(t, "Acme Motors", name)
}
