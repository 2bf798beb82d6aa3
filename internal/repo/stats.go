// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation on owner listings) and for the
// admin dashboard counters. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// OwnerListingsStats returns aggregate metadata for a user's listings: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
//
// When the user has no listings, the returned count is 0 and maxUpdatedAt is
// nil. The HTTP layer folds both into a weak ETag for GET /me/listings.
func OwnerListingsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Listing{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// CountListingsByStatus returns the number of listings in the given status.
func CountListingsByStatus(ctx context.Context, db *gorm.DB, status domain.ListingStatus) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("status = ?", status).
		Count(&total).Error
	return total, err
}

// CountListings returns the total number of listings in any status.
func CountListings(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Listing{}).Count(&total).Error
	return total, err
}
