// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the role-assignment lookup used for
// authorization.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// HasRole reports whether a (user_id, role) assignment row exists. The
// moderation layer calls this with domain.RoleAdmin; existence of the row is
// the sole authorization check.
func HasRole(ctx context.Context, db *gorm.DB, userID, role string) (bool, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&total).Error
	return total > 0, err
}
