// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Category
// model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// ListRootCategories returns top-level categories (parent_id IS NULL)
// ordered by their configured sort order. Used by the category picker and
// the home page grid.
func ListRootCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("sort_order asc").
		Find(&out).Error
	return out, err
}

// GetCategory fetches a category by primary key, or ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategoryBySlug resolves a category slug to its row, or ErrNotFound.
// Search uses this to translate a slug filter into a category id before
// composing the listing query.
func GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).First(&c, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
