// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ListingImage model.
//
// Image rows are append-only: they are created in one batch after the upload
// loop finishes and are removed only through the owning listing's cascade.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// CreateListingImages inserts the given (url, sort_order) pairs for a listing
// as one batch. Rows keep the sort order assigned by the caller, so partial
// upload batches retain the original file positions. A nil or empty slice is
// a no-op.
func CreateListingImages(ctx context.Context, db *gorm.DB, listingID string, images []domain.ListingImage) error {
	if len(images) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range images {
		images[i].ID = uuid.NewString()
		images[i].ListingID = listingID
		images[i].CreatedAt = now
	}
	return db.WithContext(ctx).Create(&images).Error
}

// ListListingImages returns the images of a listing ordered by sort_order.
func ListListingImages(ctx context.Context, db *gorm.DB, listingID string) ([]domain.ListingImage, error) {
	var out []domain.ListingImage
	err := db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("sort_order asc").
		Find(&out).Error
	return out, err
}

// CountListingImages returns how many images are already attached to a
// listing. The media layer uses it to enforce the per-listing ceiling.
func CountListingImages(ctx context.Context, db *gorm.DB, listingID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ListingImage{}).
		Where("listing_id = ?", listingID).
		Count(&total).Error
	return total, err
}
