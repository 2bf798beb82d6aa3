// Listing HTTP handlers.
//
// This file exposes the REST endpoints for listing resources:
//   - POST   /api/v1/listings                (submit, idempotent via header)
//   - GET    /api/v1/listings/{slug}         (public detail, counts a view)
//   - POST   /api/v1/listings/{id}/images    (multipart image attachment)
//   - DELETE /api/v1/listings/{id}           (owner delete, pending only)
//   - GET    /api/v1/me/listings             (owner dashboard, ETag support)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/http/middleware"
	"github.com/bazaargah/go-bazaar-backend/internal/services"
)

// maxUploadFiles caps files accepted in one attachment request; the service
// additionally enforces the per-listing total.
const maxUploadFiles = 8

// defaultMaxUploadBytes is the per-file size cap used when the constructor
// receives no explicit limit (MAX_UPLOAD_BYTES carries the deployed value).
const defaultMaxUploadBytes = 5 << 20

//
// Service contracts (context-aware)
//

// ListingService defines listing lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ListingService interface {
	// Create validates and persists a new pending listing.
	Create(ctx context.Context, ownerID string, draft services.ListingDraft) (*domain.Listing, error)
	// GetBySlug returns the approved listing and records one view.
	GetBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	// GetOwned returns one listing by id for its owner, any status.
	GetOwned(ctx context.Context, id, ownerID string) (*domain.Listing, error)
	// ListByOwner returns every listing of the owner.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	// Delete removes a pending listing owned by the requester.
	Delete(ctx context.Context, id, requesterID string) error
}

// MediaService defines the image attachment operation.
type MediaService interface {
	// Attach uploads files for the listing and records the successes.
	Attach(ctx context.Context, listingID, ownerID string, files []services.Upload) (*services.AttachResult, error)
}

// SearchService defines public search and category browsing.
type SearchService interface {
	// Search returns one page of approved listings matching the filters.
	Search(ctx context.Context, f services.Filters, page int) (*services.Page, error)
	// Categories returns the top-level categories.
	Categories(ctx context.Context) ([]domain.Category, error)
}

// ModerationService defines the admin moderation operations.
type ModerationService interface {
	Approve(ctx context.Context, adminID, listingID string) error
	Reject(ctx context.Context, adminID, listingID string) error
	ListForReview(ctx context.Context, adminID string, status *domain.ListingStatus, page int) ([]domain.Listing, error)
	GetStats(ctx context.Context, adminID string) (*services.Stats, error)
	GetSEOReport(ctx context.Context, adminID string) (*services.SEOReport, error)
}

// ProfileService defines profile reads and updates for the current user.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, patch services.ProfilePatch) (*domain.Profile, error)
}

// IdempotencyStore persists (user, key) → listing bindings for replay-safe
// submission. Lookup misses return ("", nil).
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, key string, now time.Time) (listingID string, err error)
	Save(ctx context.Context, userID, key, listingID string) error
}

// OwnerStats returns the listing count and the latest update time for one
// owner, used to build the weak ETag on the dashboard endpoint.
type OwnerStats func(ctx context.Context, ownerID string) (int64, *time.Time, error)

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for listings, search, moderation, and
// profiles. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	listingSvc     ListingService
	mediaSvc       MediaService
	searchSvc      SearchService
	modSvc         ModerationService
	profileSvc     ProfileService
	idemStore      IdempotencyStore
	ownerStats     OwnerStats
	maxUploadBytes int64
}

// New constructs a Handlers instance bound to the given services. idemStore
// and ownerStats may be nil; the corresponding features degrade gracefully.
// maxUploadBytes is the per-file image size cap; values <= 0 fall back to
// the default.
func New(listingSvc ListingService, mediaSvc MediaService, searchSvc SearchService,
	modSvc ModerationService, profileSvc ProfileService,
	idemStore IdempotencyStore, ownerStats OwnerStats, maxUploadBytes int64) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handlers{
		listingSvc:     listingSvc,
		mediaSvc:       mediaSvc,
		searchSvc:      searchSvc,
		modSvc:         modSvc,
		profileSvc:     profileSvc,
		idemStore:      idemStore,
		ownerStats:     ownerStats,
		maxUploadBytes: maxUploadBytes,
	}
}

// userID returns the authenticated caller identity from the Gin context.
// Routes behind RequireUser never see an empty result.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}

//
// DTOs
//

// CreateListingRequest is the JSON payload for submitting a listing.
type CreateListingRequest struct {
	Title           string `json:"title" binding:"required" example:"دوچرخه کوهستان ۲۶ اینچ در حد نو"`
	Description     string `json:"description" binding:"required"`
	Price           int64  `json:"price" example:"2500000"`
	City            string `json:"city" binding:"required" example:"تهران"`
	Address         string `json:"address"`
	Phone           string `json:"phone" binding:"required" example:"09123456789"`
	CategoryID      string `json:"category_id" binding:"required"`
	Condition       string `json:"condition" example:"good"`
	IsNegotiable    bool   `json:"is_negotiable"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
}

// ListingDetailResponse is the public detail payload: the listing plus its
// seller's contact card.
type ListingDetailResponse struct {
	Listing *domain.Listing `json:"listing"`
	Seller  *domain.Profile `json:"seller,omitempty"`
}

//
// Handlers
//

// CreateListing godoc
// @ID          createListing
// @Summary     Submit a new listing
// @Description Validates and stores a listing in the pending state. Supports
// @Description safe retries via the Idempotency-Key header: a replayed key
// @Description returns the previously created listing with 200 instead of 201.
// @Tags        Listings
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false "Client retry key"
// @Param       body  body  handlers.CreateListingRequest  true  "Listing draft"
// @Success     201  {object}  domain.Listing
// @Success     200  {object}  domain.Listing "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     409  {object}  handlers.ErrorResponse "Slug conflict"
// @Router      /listings [post]
func (h *Handlers) CreateListing(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// Serve a replay before touching the body: the original result is the
	// response, whatever the retried payload says.
	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey && h.idemStore != nil {
		if prevID, err := h.idemStore.Lookup(ctx, uid, key, time.Now().UTC()); err == nil && prevID != "" {
			prev, err := h.listingSvc.GetOwned(ctx, prevID, uid)
			if err == nil {
				ok(c, http.StatusOK, prev)
				return
			}
			// Stored listing vanished; fall through and create anew.
		}
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	l, err := h.listingSvc.Create(ctx, uid, services.ListingDraft{
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		City:            req.City,
		Address:         req.Address,
		Phone:           req.Phone,
		CategoryID:      req.CategoryID,
		Condition:       domain.Condition(req.Condition),
		IsNegotiable:    req.IsNegotiable,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	})
	if err != nil {
		failService(c, err)
		return
	}

	if key, hasKey := middleware.GetIdempotencyKey(c); hasKey && h.idemStore != nil {
		if err := h.idemStore.Save(ctx, uid, key, l.ID); err != nil {
			// The listing exists; losing the replay record only costs a
			// potential duplicate on retry.
			middleware.LoggerFrom(c).Warn().Err(err).
				Str("listing_id", l.ID).
				Msg("idempotency record not saved")
		}
	}

	middleware.CountListingEvent("created")
	ok(c, http.StatusCreated, l)
}

// GetListing godoc
// @ID          getListing
// @Summary     Public listing detail
// @Description Returns one approved listing by slug, with category, images,
// @Description and the seller's contact card. Each successful read counts a view.
// @Tags        Listings
// @Produce     json
// @Param       slug  path  string  true  "Listing slug"
// @Success     200  {object}  handlers.ListingDetailResponse
// @Failure     404  {object}  handlers.ErrorResponse "Not approved or unknown"
// @Router      /listings/{slug} [get]
func (h *Handlers) GetListing(c *gin.Context) {
	ctx := c.Request.Context()

	l, err := h.listingSvc.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		failService(c, err)
		return
	}

	resp := ListingDetailResponse{Listing: l}
	if h.profileSvc != nil {
		// Seller card is a nice-to-have on the detail page; its absence is
		// not an error.
		if p, err := h.profileSvc.Get(ctx, l.UserID); err == nil {
			resp.Seller = p
		}
	}
	ok(c, http.StatusOK, resp)
}

// AttachImages godoc
// @ID          attachImages
// @Summary     Attach images to a listing
// @Description Accepts a multipart batch under the "images" field. Files are
// @Description uploaded best-effort: failed files are skipped and reported,
// @Description successful ones are stored with their original batch position.
// @Tags        Listings
// @Accept      multipart/form-data
// @Produce     json
// @Param       id  path  string  true  "Listing ID (UUID)"
// @Success     201  {object}  services.AttachResult
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     422  {object}  handlers.ErrorResponse "Image limit reached"
// @Router      /listings/{id}/images [post]
func (h *Handlers) AttachImages(c *gin.Context) {
	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id must be a UUID")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart form required")
		return
	}
	fhs := form.File["images"]
	if len(fhs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "at least one file required under \"images\"")
		return
	}
	if len(fhs) > maxUploadFiles {
		fail(c, http.StatusUnprocessableEntity, ErrCodeQuotaExceeded,
			fmt.Sprintf("at most %d files per request", maxUploadFiles))
		return
	}

	files := make([]services.Upload, 0, len(fhs))
	for _, fh := range fhs {
		if fh.Size > h.maxUploadBytes {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest,
				fmt.Sprintf("file %q exceeds %d bytes", fh.Filename, h.maxUploadBytes))
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file in form")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > h.maxUploadBytes {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file in form")
			return
		}
		files = append(files, services.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := h.mediaSvc.Attach(c.Request.Context(), listingID, userID(c), files)
	if err != nil {
		failService(c, err)
		return
	}

	for _, fr := range res.Files {
		if fr.Failed {
			middleware.CountImageUpload("failed")
		} else {
			middleware.CountImageUpload("stored")
		}
	}
	ok(c, http.StatusCreated, res)
}

// DeleteListing godoc
// @ID          deleteListing
// @Summary     Delete an own pending listing
// @Tags        Listings
// @Param       id  path  string  true  "Listing ID (UUID)"
// @Success     204  {string}  string "No Content"
// @Failure     403  {object}  handlers.ErrorResponse "Not the owner"
// @Failure     409  {object}  handlers.ErrorResponse "Listing is not pending"
// @Router      /listings/{id} [delete]
func (h *Handlers) DeleteListing(c *gin.Context) {
	listingID := c.Param("id")
	if _, err := uuid.Parse(listingID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id must be a UUID")
		return
	}

	if err := h.listingSvc.Delete(c.Request.Context(), listingID, userID(c)); err != nil {
		failService(c, err)
		return
	}
	middleware.CountListingEvent("deleted")
	noContent(c)
}

// MyListings godoc
// @ID          myListings
// @Summary     Current user's listings
// @Description Returns every listing of the caller, any status, newest first.
// @Description Supports a weak ETag; If-None-Match may yield 304.
// @Tags        Listings
// @Produce     json
// @Success     200  {array}   domain.Listing
// @Success     304  {string}  string "Not Modified"
// @Router      /me/listings [get]
func (h *Handlers) MyListings(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	if h.ownerStats != nil {
		if count, maxTS, err := h.ownerStats(ctx, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"listings:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.listingSvc.ListByOwner(ctx, uid)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Listing{}
	}
	ok(c, http.StatusOK, items)
}

// trimmed returns the query parameter with surrounding whitespace removed.
func trimmed(c *gin.Context, name string) string {
	return strings.TrimSpace(c.Query(name))
}
