package repository

import (
	"context"

	"github.com/smallbiznis/ftzflow/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is the generic record-store contract for one collection keyed
// by a snowflake id column named "id".
type Repository[T any] interface {
	// WithTrx binds the store to tx; a nil tx keeps the current handle.
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	// FindByID returns nil, nil when the record does not exist.
	FindByID(ctx context.Context, id any) (*T, error)
	// FindByIDs loads every existing record among ids; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids any, opts ...option.QueryOption) ([]*T, error)
	// LockByID reads the record with a row lock held until tx ends. Sqlite
	// ignores the lock clause and serializes writers instead.
	LockByID(ctx context.Context, id any) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID any, resource any) (int64, error)
}
