package repository

import (
	"context"
	"reflect"

	"github.com/smallbiznis/ftzflow/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTrx(tx *gorm.DB) Repository[T] {
	if tx == nil {
		return r
	}
	return &store[T]{db: tx}
}

func (r *store[T]) Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error) {
	var result []*T
	stmt := r.db.WithContext(ctx).Model(new(T))
	if query != nil {
		stmt = stmt.Where(query)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	err := stmt.Find(&result).Error
	return result, err
}

func (r *store[T]) FindByID(ctx context.Context, id any) (*T, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *store[T]) FindByIDs(ctx context.Context, ids any, opts ...option.QueryOption) ([]*T, error) {
	if isEmpty(ids) {
		return nil, nil
	}
	opts = append([]option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "id", Operator: option.IN, Value: ids}),
	}, opts...)
	return r.Find(ctx, nil, opts...)
}

func (r *store[T]) LockByID(ctx context.Context, id any) (*T, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Update(ctx context.Context, resourceID any, resource any) (int64, error) {
	result := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", resourceID).Updates(resource)
	return result.RowsAffected, result.Error
}

// first uses Find with a limit so a miss is not logged as a gorm error.
func (r *store[T]) first(db *gorm.DB, id any) (*T, error) {
	var rows []*T
	if err := db.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func isEmpty(ids any) bool {
	if ids == nil {
		return true
	}
	v := reflect.ValueOf(ids)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len() == 0
	}
	return false
}
