// Package services – ModerationService
//
// This file implements the moderation workflow: admin-gated approval and
// rejection of pending listings, the review queue, aggregate marketplace
// stats and the SEO metadata report. Status transitions are conditional
// updates at the database level, so two moderators racing on the same listing
// cannot both win.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/seo"
)

// ModerationRepo defines the repository contract required by ModerationService.
type ModerationRepo interface {
	// HasRole reports whether the user holds the given role.
	HasRole(ctx context.Context, db *gorm.DB, userID, role string) (bool, error)

	// GetListing fetches one listing by id, any status.
	GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error)

	// UpdateListingStatus performs the conditional transition and reports how
	// many rows matched.
	UpdateListingStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.ListingStatus, approvedAt *time.Time) (int64, error)

	// ListListingsForReview returns the moderation queue, optionally filtered
	// by status, newest first.
	ListListingsForReview(ctx context.Context, db *gorm.DB, status *domain.ListingStatus, offset, limit int) ([]domain.Listing, error)

	// ListApprovedListings returns all approved listings for the SEO report.
	ListApprovedListings(ctx context.Context, db *gorm.DB) ([]domain.Listing, error)

	// CountListings returns the total number of listings.
	CountListings(ctx context.Context, db *gorm.DB) (int64, error)

	// CountListingsByStatus returns the number of listings in one status.
	CountListingsByStatus(ctx context.Context, db *gorm.DB, status domain.ListingStatus) (int64, error)

	// CountProfiles returns the total number of registered profiles.
	CountProfiles(ctx context.Context, db *gorm.DB) (int64, error)
}

// Stats is the aggregate snapshot served on the admin dashboard.
type Stats struct {
	// TotalListings is the count across all statuses.
	TotalListings int64 `json:"total_listings"`
	// PendingListings is the size of the review queue.
	PendingListings int64 `json:"pending_listings"`
	// ApprovedListings is the count of publicly visible listings.
	ApprovedListings int64 `json:"approved_listings"`
	// TotalUsers is the number of registered profiles.
	TotalUsers int64 `json:"total_users"`
}

// SEOReportEntry is one listing's metadata audit in the admin SEO report.
type SEOReportEntry struct {
	// ListingID identifies the audited listing.
	ListingID string `json:"listing_id"`
	// Slug is included so the report is actionable without a second lookup.
	Slug string `json:"slug"`
	// Issues lists the detected metadata problems, empty when optimal.
	Issues []seo.Issue `json:"issues"`
}

// SEOReport summarizes metadata quality across all approved listings.
type SEOReport struct {
	// Audited is the number of listings examined.
	Audited int `json:"audited"`
	// Optimal is the number with no issues.
	Optimal int `json:"optimal"`
	// Entries holds the listings that have at least one issue.
	Entries []SEOReportEntry `json:"entries"`
}

// ModerationService implements the admin moderation operations.
type ModerationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the moderation repository used by this service.
	Repo ModerationRepo
}

// NewModerationService constructs a ModerationService.
func NewModerationService(db *gorm.DB, r ModerationRepo) *ModerationService {
	return &ModerationService{DB: db, Repo: r}
}

// requireAdmin returns ErrNotAdmin unless the caller holds the admin role.
// Role lookup failures are surfaced as-is so a database outage is not
// mistaken for a permissions problem.
func (s *ModerationService) requireAdmin(ctx context.Context, adminID string) error {
	ok, err := s.Repo.HasRole(ctx, s.DB, adminID, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAdmin
	}
	return nil
}

// Approve transitions a pending listing to approved and stamps approved_at.
// The transition is a conditional UPDATE keyed on the current status: when it
// matches no row the error distinguishes a missing listing from one that is
// simply not pending anymore, so a lost moderation race reports as a
// conflict rather than a 404.
func (s *ModerationService) Approve(ctx context.Context, adminID, listingID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.transition(ctx, listingID, domain.StatusApproved, &now)
}

// Reject transitions a pending listing to rejected and clears approved_at.
// Same admin gate and race semantics as Approve.
func (s *ModerationService) Reject(ctx context.Context, adminID, listingID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	return s.transition(ctx, listingID, domain.StatusRejected, nil)
}

func (s *ModerationService) transition(ctx context.Context, listingID string, to domain.ListingStatus, approvedAt *time.Time) error {
	n, err := s.Repo.UpdateListingStatus(ctx, s.DB, listingID, domain.StatusPending, to, approvedAt)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Zero rows matched: either the listing is gone or it is no longer
	// pending. One extra read tells them apart.
	if _, err := s.Repo.GetListing(ctx, s.DB, listingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	return ErrNotPending
}

// ListForReview returns the moderation queue, newest first. A nil status
// returns listings of every status; page is 1-based with the shared fixed
// page size.
func (s *ModerationService) ListForReview(ctx context.Context, adminID string, status *domain.ListingStatus, page int) ([]domain.Listing, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	return s.Repo.ListListingsForReview(ctx, s.DB, status, (page-1)*PageSize, PageSize)
}

// GetStats returns the aggregate dashboard counters.
func (s *ModerationService) GetStats(ctx context.Context, adminID string) (*Stats, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	total, err := s.Repo.CountListings(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	pending, err := s.Repo.CountListingsByStatus(ctx, s.DB, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	approved, err := s.Repo.CountListingsByStatus(ctx, s.DB, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	users, err := s.Repo.CountProfiles(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalListings:    total,
		PendingListings:  pending,
		ApprovedListings: approved,
		TotalUsers:       users,
	}, nil
}

// GetSEOReport audits the metadata of every approved listing and returns the
// ones with issues. Listings with optimal metadata are only counted.
func (s *ModerationService) GetSEOReport(ctx context.Context, adminID string) (*SEOReport, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	listings, err := s.Repo.ListApprovedListings(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	report := &SEOReport{Audited: len(listings), Entries: []SEOReportEntry{}}
	for _, l := range listings {
		issues := seo.Audit(l.MetaTitle, l.MetaDesc)
		if len(issues) == 0 {
			report.Optimal++
			continue
		}
		report.Entries = append(report.Entries, SEOReportEntry{
			ListingID: l.ID,
			Slug:      l.Slug,
			Issues:    issues,
		})
	}
	return report, nil
}
