// Package services – ListingService
//
// This file implements the ListingService, which manages the listing
// lifecycle: draft validation, slug and meta-field derivation, creation in
// the pending state, public detail reads with atomic view counting, and
// owner-scoped deletion with best-effort blob cleanup.
//
// Service-level errors (e.g., ErrListingNotFound, ErrSlugConflict) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/repo"
)

// BlobStore is the blob-side contract consumed by the listing and media
// services. Upload returns the public URL of the stored object; Remove is
// best-effort and its failures are logged, never surfaced to callers.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// ListingRepo defines the repository contract required by ListingService.
// Implementations are responsible for persistence of listing aggregates.
type ListingRepo interface {
	// CreateListing inserts a fully populated listing row.
	CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error

	// GetListing fetches a listing by id regardless of status.
	GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error)

	// GetApprovedBySlug fetches an approved listing with category and images.
	GetApprovedBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Listing, error)

	// ListListingsByUser returns all listings owned by a user, newest first.
	ListListingsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Listing, error)

	// IncrementListingViews bumps views_count atomically at the storage layer.
	IncrementListingViews(ctx context.Context, db *gorm.DB, id string, delta int64) error

	// DeleteListing hard-deletes a listing; image rows cascade.
	DeleteListing(ctx context.Context, db *gorm.DB, id string) error

	// ListListingImages returns a listing's images ordered by sort_order.
	ListListingImages(ctx context.Context, db *gorm.DB, listingID string) ([]domain.ListingImage, error)

	// GetCategory resolves a category id.
	GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error)
}

// ListingDraft is the validated input for creating a listing. MetaTitle and
// MetaDescription are optional; when empty they are derived by truncating
// title and description.
type ListingDraft struct {
	Title           string
	Description     string
	Price           int64
	City            string
	Address         string
	Phone           string
	CategoryID      string
	Condition       domain.Condition
	IsNegotiable    bool
	MetaTitle       string
	MetaDescription string
}

// ListingService provides lifecycle operations for listings. Moderation
// transitions live in ModerationService; image attachment in MediaService.
type ListingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the listing repository used by this service.
	Repo ListingRepo
	// Blobs removes stored image objects during deletion. May be nil, in
	// which case blob cleanup is skipped (rows still cascade).
	Blobs BlobStore
}

// NewListingService constructs a ListingService.
func NewListingService(db *gorm.DB, r ListingRepo, blobs BlobStore) *ListingService {
	return &ListingService{DB: db, Repo: r, Blobs: blobs}
}

// Draft bounds, in runes.
const (
	titleMinLen = 10
	titleMaxLen = 100
	descMinLen  = 50
	descMaxLen  = 2000
	cityMinLen  = 2

	metaTitleMaxLen = 60
	metaDescMaxLen  = 160

	slugTitleLen  = 30
	slugSuffixLen = 8
)

// mobileRE matches Iranian mobile numbers as entered on the listing form.
var mobileRE = regexp.MustCompile(`^09\d{9}$`)

// Create validates the draft, derives slug and meta fields, and persists a
// pending listing owned by ownerID. The returned listing carries the
// generated id and slug.
//
// Errors:
//   - *ValidationError naming the first failing field
//   - ErrCategoryNotFound when the category reference dangles
//   - ErrSlugConflict when the derived slug collides (retry derives a new
//     random suffix)
func (s *ListingService) Create(ctx context.Context, ownerID string, draft ListingDraft) (*domain.Listing, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetCategory(ctx, s.DB, draft.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	title := normalizeWhitespace(draft.Title)
	l := &domain.Listing{
		ID:           uuid.NewString(),
		UserID:       ownerID,
		CategoryID:   draft.CategoryID,
		Title:        title,
		Description:  draft.Description,
		Price:        draft.Price,
		City:         strings.TrimSpace(draft.City),
		Address:      strings.TrimSpace(draft.Address),
		Phone:        draft.Phone,
		Condition:    draft.Condition,
		IsNegotiable: draft.IsNegotiable,
		Status:       domain.StatusPending,
		ViewsCount:   0,
		Slug:         deriveSlug(title),
		MetaTitle:    draft.MetaTitle,
		MetaDesc:     draft.MetaDescription,
		ApprovedAt:   nil,
	}
	if l.Condition == "" {
		l.Condition = domain.ConditionGood
	}
	if l.MetaTitle == "" {
		l.MetaTitle = truncateRunes(title, metaTitleMaxLen)
	}
	if l.MetaDesc == "" {
		l.MetaDesc = truncateRunes(draft.Description, metaDescMaxLen)
	}

	if err := s.Repo.CreateListing(ctx, s.DB, l); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}
	return l, nil
}

// GetBySlug returns the approved listing for public detail rendering and
// records one view. The view increment is a read-triggered write: its
// failure is logged and never fails the read.
func (s *ListingService) GetBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	l, err := s.Repo.GetApprovedBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	if err := s.RecordView(ctx, l.ID); err != nil {
		log.Warn().Err(err).Str("listing_id", l.ID).Msg("view increment failed")
	}
	return l, nil
}

// RecordView increments the listing's view counter by exactly one, as an
// atomic storage-layer update. Safe under concurrent invocation.
func (s *ListingService) RecordView(ctx context.Context, id string) error {
	return s.Repo.IncrementListingViews(ctx, s.DB, id, 1)
}

// ListByOwner returns every listing of the owner, regardless of status.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return s.Repo.ListListingsByUser(ctx, s.DB, ownerID)
}

// GetOwned returns one listing by id for its owner, any status. Owners see
// their pending and rejected ads through this path. Returns ErrNotOwner when
// the requester does not own the listing.
func (s *ListingService) GetOwned(ctx context.Context, id, ownerID string) (*domain.Listing, error) {
	l, err := s.Repo.GetListing(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if l.UserID != ownerID {
		return nil, ErrNotOwner
	}
	return l, nil
}

// Delete removes a pending listing owned by requesterID. Image rows cascade
// with the listing row; the stored blobs are removed best-effort afterwards,
// and a blob failure is logged, not surfaced, because the listing record is
// already gone and is the authoritative source of truth.
//
// Errors: ErrListingNotFound, ErrNotOwner, ErrNotPending.
func (s *ListingService) Delete(ctx context.Context, id, requesterID string) error {
	l, err := s.Repo.GetListing(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if l.UserID != requesterID {
		return ErrNotOwner
	}
	if l.Status != domain.StatusPending {
		return ErrNotPending
	}

	images, err := s.Repo.ListListingImages(ctx, s.DB, id)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteListing(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	if s.Blobs != nil {
		for _, img := range images {
			key := imageKey(l.UserID, l.ID, img.ImageURL)
			if err := s.Blobs.Remove(ctx, key); err != nil {
				log.Warn().Err(err).
					Str("listing_id", l.ID).
					Str("key", key).
					Msg("orphaned blob left behind")
			}
		}
	}
	return nil
}

// validateDraft checks the draft constraints in a fixed order and returns a
// ValidationError for the first violated field.
func validateDraft(d ListingDraft) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(d.Title)); n < titleMinLen || n > titleMaxLen {
		return invalid("title", "must be between 10 and 100 characters")
	}
	if n := utf8.RuneCountInString(d.Description); n < descMinLen || n > descMaxLen {
		return invalid("description", "must be between 50 and 2000 characters")
	}
	if d.Price < 0 {
		return invalid("price", "must not be negative")
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.City)) < cityMinLen {
		return invalid("city", "is required")
	}
	if strings.TrimSpace(d.CategoryID) == "" {
		return invalid("category_id", "is required")
	}
	if !mobileRE.MatchString(d.Phone) {
		return invalid("phone", "must be a valid mobile number")
	}
	switch d.Condition {
	case "", domain.ConditionNew, domain.ConditionLikeNew, domain.ConditionGood, domain.ConditionFair:
	default:
		return invalid("condition", "must be one of new, like_new, good, fair")
	}
	return nil
}

// deriveSlug builds the unique URL identifier from the first slugTitleLen
// runes of the normalized title plus a random hex suffix. The suffix is
// derived per attempt, so a conflicting insert can simply be retried; the
// wall-clock suffix the listing form used originally collides under rapid
// repeated submission and is deliberately not reproduced.
func deriveSlug(title string) string {
	head := truncateRunes(normalizeWhitespace(norm.NFC.String(title)), slugTitleLen)
	head = strings.ReplaceAll(head, " ", "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:slugSuffixLen]
	if head == "" {
		return suffix
	}
	return head + "-" + suffix
}

// imageKey reconstructs the blob key of a stored image from its URL and the
// owner/listing scope used at upload time (see MediaService.objectKey).
func imageKey(ownerID, listingID, imageURL string) string {
	base := imageURL
	if i := strings.LastIndex(imageURL, "/"); i >= 0 {
		base = imageURL[i+1:]
	}
	return ownerID + "/" + listingID + "/" + base
}

// truncateRunes clips s to at most n runes.
func truncateRunes(s string, n int) string {
	if n > 0 && utf8.RuneCountInString(s) > n {
		return string([]rune(s)[:n])
	}
	return s
}

// normalizeWhitespace trims and collapses consecutive whitespace to one space.
func normalizeWhitespace(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
