// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model. Profiles are created out-of-band by the identity provider; this
// layer only reads them and applies owner-scoped patches.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// GetProfile fetches the profile whose id equals the user id, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).First(&p, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile applies a whitelisted patch to the user's own profile row.
// Returns ErrNotFound when the profile does not exist.
func UpdateProfile(ctx context.Context, db *gorm.DB, userID string, patch map[string]any) error {
	patch["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountProfiles returns the total number of profiles, i.e. the registered
// user count shown on the admin dashboard.
func CountProfiles(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Profile{}).Count(&total).Error
	return total, err
}
