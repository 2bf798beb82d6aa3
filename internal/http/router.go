// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/config"
	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/http/handlers"
	"github.com/bazaargah/go-bazaar-backend/internal/http/middleware"
	"github.com/bazaargah/go-bazaar-backend/internal/repo"
	"github.com/bazaargah/go-bazaar-backend/internal/services"
)

//
// Repo shims
//
// The shims adapt the repository free functions to the interfaces expected
// by the services. This keeps services decoupled from the concrete repo
// package while reusing the existing functions.
//

// listingRepoShim satisfies services.ListingRepo.
type listingRepoShim struct{}

func (listingRepoShim) CreateListing(ctx context.Context, db *gorm.DB, l *domain.Listing) error {
	return repo.CreateListing(ctx, db, l)
}

func (listingRepoShim) GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	return repo.GetListing(ctx, db, id)
}

func (listingRepoShim) GetApprovedBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Listing, error) {
	return repo.GetApprovedBySlug(ctx, db, slug)
}

func (listingRepoShim) ListListingsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Listing, error) {
	return repo.ListListingsByUser(ctx, db, userID)
}

func (listingRepoShim) IncrementListingViews(ctx context.Context, db *gorm.DB, id string, delta int64) error {
	return repo.IncrementListingViews(ctx, db, id, delta)
}

func (listingRepoShim) DeleteListing(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteListing(ctx, db, id)
}

func (listingRepoShim) ListListingImages(ctx context.Context, db *gorm.DB, listingID string) ([]domain.ListingImage, error) {
	return repo.ListListingImages(ctx, db, listingID)
}

func (listingRepoShim) GetCategory(ctx context.Context, db *gorm.DB, id string) (*domain.Category, error) {
	return repo.GetCategory(ctx, db, id)
}

// mediaRepoShim satisfies services.MediaRepo.
type mediaRepoShim struct{}

func (mediaRepoShim) GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	return repo.GetListing(ctx, db, id)
}

func (mediaRepoShim) CountListingImages(ctx context.Context, db *gorm.DB, listingID string) (int64, error) {
	return repo.CountListingImages(ctx, db, listingID)
}

func (mediaRepoShim) CreateListingImages(ctx context.Context, db *gorm.DB, listingID string, images []domain.ListingImage) error {
	return repo.CreateListingImages(ctx, db, listingID, images)
}

// moderationRepoShim satisfies services.ModerationRepo.
type moderationRepoShim struct{}

func (moderationRepoShim) HasRole(ctx context.Context, db *gorm.DB, userID, role string) (bool, error) {
	return repo.HasRole(ctx, db, userID, role)
}

func (moderationRepoShim) GetListing(ctx context.Context, db *gorm.DB, id string) (*domain.Listing, error) {
	return repo.GetListing(ctx, db, id)
}

func (moderationRepoShim) UpdateListingStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.ListingStatus, approvedAt *time.Time) (int64, error) {
	return repo.UpdateListingStatus(ctx, db, id, from, to, approvedAt)
}

func (moderationRepoShim) ListListingsForReview(ctx context.Context, db *gorm.DB, status *domain.ListingStatus, offset, limit int) ([]domain.Listing, error) {
	return repo.ListListingsForReview(ctx, db, status, offset, limit)
}

func (moderationRepoShim) ListApprovedListings(ctx context.Context, db *gorm.DB) ([]domain.Listing, error) {
	return repo.ListApprovedListings(ctx, db)
}

func (moderationRepoShim) CountListings(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountListings(ctx, db)
}

func (moderationRepoShim) CountListingsByStatus(ctx context.Context, db *gorm.DB, status domain.ListingStatus) (int64, error) {
	return repo.CountListingsByStatus(ctx, db, status)
}

func (moderationRepoShim) CountProfiles(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountProfiles(ctx, db)
}

// searchRepoShim satisfies services.SearchRepo.
type searchRepoShim struct{}

func (searchRepoShim) GetCategoryBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Category, error) {
	return repo.GetCategoryBySlug(ctx, db, slug)
}

func (searchRepoShim) SearchApprovedListings(ctx context.Context, db *gorm.DB, f repo.SearchFilters, offset, limit int) ([]domain.Listing, int64, error) {
	return repo.SearchApprovedListings(ctx, db, f, offset, limit)
}

func (searchRepoShim) ListRootCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	return repo.ListRootCategories(ctx, db)
}

// profileRepoShim satisfies services.ProfileRepo.
type profileRepoShim struct{}

func (profileRepoShim) GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	return repo.GetProfile(ctx, db, id)
}

func (profileRepoShim) UpdateProfile(ctx context.Context, db *gorm.DB, id string, patch map[string]any) error {
	return repo.UpdateProfile(ctx, db, id, patch)
}

// idemStore satisfies handlers.IdempotencyStore on top of the repo helpers.
type idemStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idemStore) Lookup(ctx context.Context, userID, key string, now time.Time) (string, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.ListingID, nil
}

func (s idemStore) Save(ctx context.Context, userID, key, listingID string) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, key, listingID, http.StatusCreated, s.ttl)
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: forwarded user id from the gateway
//  4. RedactingLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, blobs services.BlobStore, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity from the gateway
	r.Use(middleware.Identity())

	// 4) Structured logging with redaction (listing metadata carries phone
	//    numbers)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit; image batches need headroom over the
	//    per-file cap
	r.Use(limitBody(int64(handlersMaxBodyFactor) * cfg.MaxUploadBytes))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps
		// tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in
		// addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/blobs
	listingSvc := services.NewListingService(db, listingRepoShim{}, blobs)
	mediaSvc := services.NewMediaService(db, mediaRepoShim{}, blobs)
	searchSvc := services.NewSearchService(db, searchRepoShim{})
	modSvc := services.NewModerationService(db, moderationRepoShim{})
	profileSvc := services.NewProfileService(db, profileRepoShim{})

	h := handlers.New(listingSvc, mediaSvc, searchSvc, modSvc, profileSvc,
		idemStore{db: db, ttl: cfg.IdempotencyTTL},
		func(ctx context.Context, ownerID string) (int64, *time.Time, error) {
			return repo.OwnerListingsStats(ctx, db, ownerID)
		},
		cfg.MaxUploadBytes,
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Browse endpoints are compressed; listing pages are the bulk of
		// the traffic.
		public := api.Group("", gzip.Gzip(gzip.DefaultCompression))
		public.GET("/categories", h.ListCategories)
		public.GET("/listings", h.SearchListings)
		public.GET("/listings/:slug", h.GetListing)

		// Authenticated surface
		auth := api.Group("", middleware.RequireUser())
		auth.POST("/listings", h.CreateListing)
		auth.POST("/listings/:id/images", h.AttachImages)
		auth.DELETE("/listings/:id", h.DeleteListing)
		auth.GET("/me/listings", h.MyListings)
		auth.GET("/me/profile", h.GetProfile)
		auth.PUT("/me/profile", h.UpdateProfile)

		// Admin surface (role check lives in the moderation service)
		admin := auth.Group("/admin")
		admin.POST("/listings/:id/approve", h.ApproveListing)
		admin.POST("/listings/:id/reject", h.RejectListing)
		admin.GET("/listings", h.ReviewQueue)
		admin.GET("/listings/seo-report", h.SEOReport)
		admin.GET("/stats", h.AdminStats)
	}
}

// handlersMaxBodyFactor sizes the global body cap as a multiple of the
// per-file upload cap, leaving room for a full multipart batch.
const handlersMaxBodyFactor = 9

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
