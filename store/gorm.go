package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormLog stores a collection in a table. Rows come back in insertion
// order via orderBy, normally the auto-increment column.
type GormLog[T any] struct {
	db      *gorm.DB
	orderBy string
}

func NewGormLog[T any](db *gorm.DB, orderBy string) *GormLog[T] {
	return &GormLog[T]{db: db, orderBy: orderBy}
}

func (g *GormLog[T]) Append(ctx context.Context, item T) error {
	if g.db == nil {
		return ErrNotConfigured
	}
	if err := g.db.WithContext(ctx).Create(&item).Error; err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (g *GormLog[T]) All(ctx context.Context) ([]T, error) {
	if g.db == nil {
		return nil, ErrNotConfigured
	}
	var items []T
	if err := g.db.WithContext(ctx).Order(g.orderBy).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return items, nil
}

func (g *GormLog[T]) Replace(ctx context.Context, items []T) error {
	if g.db == nil {
		return ErrNotConfigured
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zero T
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&zero).Error; err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(items, 100).Error; err != nil {
			return fmt.Errorf("reinsert: %w", err)
		}
		return nil
	})
}
