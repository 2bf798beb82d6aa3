// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Listing
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a listing is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A slug collision on insert is returned as ErrDuplicate so the service
//     layer can translate it into the conflict taxonomy.
//   - On other DB errors (connectivity issues, etc.), the raw gorm error is
//     propagated.
//
// Every mutation names its target row by primary key and, where the state
// machine requires it, an explicit status precondition in the WHERE clause.
// Nothing in this package performs read-modify-write on shared counters.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation (slug collision or a
// replayed idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation reports whether err is a unique-constraint failure.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations,
// so the message is inspected in addition to gorm's sentinel.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateListing inserts a new listing row. The caller is responsible for
// populating all fields including ID and Slug; CreatedAt is set to UTC here
// when unset. A slug collision is returned as ErrDuplicate.
func CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetListing fetches a listing by primary key without any status filter.
// Returns ErrNotFound when the row does not exist.
func GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	var l domain.Listing
	err := db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetApprovedBySlug fetches the approved listing identified by slug, with its
// category and images (ordered by sort_order) preloaded for detail rendering.
// Pending, rejected, and expired listings are invisible through this path.
func GetApprovedBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Listing, error) {
	var l domain.Listing
	err := db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc")
		}).
		Where("slug = ? AND status = ?", slug, domain.StatusApproved).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListListingsByUser returns all listings owned by userID, newest first, with
// category and ordered images preloaded. Every status is included: owners see
// their pending and rejected ads.
func ListListingsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Listing, error) {
	var out []domain.Listing
	err := db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc")
		}).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// IncrementListingViews bumps views_count by delta as a single atomic UPDATE
// at the storage layer. It never reads the current value, so concurrent
// viewers cannot lose updates. Returns ErrNotFound if the row is missing.
func IncrementListingViews(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateListingStatus performs the conditional moderation transition
// from → to, stamping approved_at with the given value (which may be nil to
// clear it). The precondition lives in the WHERE clause, so two concurrent
// moderators serialize at the storage layer and only one update matches.
//
// It returns the number of rows affected; zero means the listing either does
// not exist or was not in the `from` status, and the caller decides which.
func UpdateListingStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.ListingStatus, approvedAt *time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"approved_at": approvedAt,
		})
	return res.RowsAffected, res.Error
}

// DeleteListing hard-deletes a listing row by primary key. Image rows go with
// it via the FK cascade. Returns ErrNotFound when nothing was deleted.
func DeleteListing(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Listing{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SearchFilters narrows an approved-listing search. Zero values mean
// "no filter" for the respective dimension.
type SearchFilters struct {
	// TitleQuery matches as a case-insensitive substring of the title.
	TitleQuery string
	// CategoryID restricts to a single resolved category.
	CategoryID string
	// City restricts by exact city value.
	City string
}

// searchScope applies the approved-only restriction plus the optional
// filters. The status restriction is unconditional: no filter combination can
// widen the result beyond the approved subset.
func searchScope(q *gorm.DB, f SearchFilters) *gorm.DB {
	q = q.Where("status = ?", domain.StatusApproved)
	if f.TitleQuery != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.TitleQuery)+"%")
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	return q
}

// SearchApprovedListings returns a page of approved listings matching the
// filters, newest first, with category and ordered images preloaded, plus the
// total match count across all pages.
func SearchApprovedListings(ctx context.Context, db *gorm.DB, f SearchFilters, offset, limit int) ([]domain.Listing, int64, error) {
	var total int64
	if err := searchScope(db.WithContext(ctx).Model(&domain.Listing{}), f).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Listing
	err := searchScope(db.WithContext(ctx), f).
		Preload("Category").
		Preload("Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sort_order asc")
		}).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListListingsForReview returns a page of listings for the admin queue,
// newest first. A nil status returns listings in every state.
func ListListingsForReview(ctx context.Context, db *gorm.DB, status *domain.ListingStatus, offset, limit int) ([]domain.Listing, error) {
	q := db.WithContext(ctx).Preload("Category")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.Listing
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListApprovedListings returns every approved listing, newest first. Used by
// the SEO report, which audits the full approved subset.
func ListApprovedListings(ctx context.Context, db *gorm.DB) ([]domain.Listing, error) {
	var out []domain.Listing
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusApproved).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
