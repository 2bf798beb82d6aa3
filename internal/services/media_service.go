// Package services – MediaService
//
// This file implements the MediaService, which coordinates image uploads for
// an already-persisted listing. Uploads are a best-effort batch: each file is
// attempted independently, failures are logged and skipped, and only the
// successful subset is committed as image rows. A listing is never lost (or
// failed) because one of several images failed to upload.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
)

// MaxImagesPerListing is the per-listing attachment ceiling, counted across
// all calls, not per call.
const MaxImagesPerListing = 8

// MediaRepo defines the repository contract required by MediaService.
type MediaRepo interface {
	// GetListing fetches the owning listing for the ownership check.
	GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error)

	// CountListingImages returns how many images are already attached.
	CountListingImages(ctx context.Context, db *gorm.DB, listingID string) (int64, error)

	// CreateListingImages batch-inserts the successful (url, sort_order) pairs.
	CreateListingImages(ctx context.Context, db *gorm.DB, listingID string, images []domain.ListingImage) error
}

// Upload is one file submitted for attachment.
type Upload struct {
	// Filename is the client-supplied name; only its extension is kept.
	Filename string
	// ContentType is the declared media type, stored with the blob.
	ContentType string
	// Data is the raw file content.
	Data []byte
}

// FileResult records the outcome of a single file in an attachment batch.
type FileResult struct {
	// Index is the position of the file in the submitted batch.
	Index int `json:"index"`
	// URL is the stored object URL; empty when the upload failed.
	URL string `json:"url,omitempty"`
	// Err holds the upload failure, if any. Not serialized; Failed mirrors it.
	Err error `json:"-"`
	// Failed reports whether this file was skipped.
	Failed bool `json:"failed"`
}

// AttachResult aggregates a best-effort batch: which files made it, which
// were skipped, and how many image rows were written.
type AttachResult struct {
	// Files holds one entry per submitted file, in submission order.
	Files []FileResult `json:"files"`
	// Attached is the number of image rows written.
	Attached int `json:"attached"`
}

// MediaService attaches uploaded images to listings.
type MediaService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the media repository used by this service.
	Repo MediaRepo
	// Blobs stores the uploaded objects.
	Blobs BlobStore
}

// NewMediaService constructs a MediaService.
func NewMediaService(db *gorm.DB, r MediaRepo, blobs BlobStore) *MediaService {
	return &MediaService{DB: db, Repo: r, Blobs: blobs}
}

// Attach uploads the given files for the listing and records the successful
// subset as image rows in one batch. Per-file failures are isolated: file i
// failing does not stop file i+1, and sort_order keeps the original batch
// index of each success (gaps are preserved rather than re-indexed).
// Repeated calls append; nothing is ever replaced.
//
// When zero files succeed, no rows are written and the call still returns a
// nil error: the owning listing is already durably created, so the caller
// gets a result with Attached == 0 to report as a soft warning.
//
// Errors:
//   - ErrListingNotFound when the listing id does not resolve
//   - ErrNotOwner when ownerID does not own the listing
//   - ErrImageQuotaExceeded when already-attached + len(files) exceeds the
//     ceiling (re-checked here even though callers enforce it first)
func (s *MediaService) Attach(ctx context.Context, listingID, ownerID string, files []Upload) (*AttachResult, error) {
	l, err := s.Repo.GetListing(ctx, s.DB, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if l.UserID != ownerID {
		return nil, ErrNotOwner
	}

	existing, err := s.Repo.CountListingImages(ctx, s.DB, listingID)
	if err != nil {
		return nil, err
	}
	if existing+int64(len(files)) > MaxImagesPerListing {
		return nil, ErrImageQuotaExceeded
	}

	res := &AttachResult{Files: make([]FileResult, len(files))}
	var rows []domain.ListingImage
	now := time.Now().UTC().Unix()

	for i, f := range files {
		key := objectKey(ownerID, listingID, now, i, f.Filename)
		url, upErr := s.Blobs.Upload(ctx, key, f.Data, f.ContentType)
		if upErr != nil {
			log.Warn().Err(upErr).
				Str("listing_id", listingID).
				Int("file_index", i).
				Msg("image upload failed, skipping file")
			res.Files[i] = FileResult{Index: i, Err: upErr, Failed: true}
			continue
		}
		res.Files[i] = FileResult{Index: i, URL: url}
		rows = append(rows, domain.ListingImage{
			ImageURL:  url,
			SortOrder: i,
		})
	}

	if err := s.Repo.CreateListingImages(ctx, s.DB, listingID, rows); err != nil {
		return nil, err
	}
	res.Attached = len(rows)
	return res, nil
}

// objectKey builds the scoped blob key for one file:
// <owner>/<listing>/<unix>-<index><ext>. The creation-time and batch-index
// disambiguators keep repeated batches from overwriting earlier objects.
func objectKey(ownerID, listingID string, unix int64, index int, filename string) string {
	return fmt.Sprintf("%s/%s/%d-%d%s", ownerID, listingID, unix, index, filepath.Ext(filename))
}
