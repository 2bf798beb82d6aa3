// Admin HTTP handlers.
//
// This file exposes the moderation endpoints:
//   - POST /api/v1/admin/listings/{id}/approve
//   - POST /api/v1/admin/listings/{id}/reject
//   - GET  /api/v1/admin/listings?status=&page=
//   - GET  /api/v1/admin/stats
//   - GET  /api/v1/admin/listings/seo-report
//
// Authorization is not decided here: every operation passes the caller id to
// the moderation service, which checks the admin role against user_roles.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/http/middleware"
	"github.com/bazaargah/go-bazaar-backend/internal/utils"
)

// listingIDParam validates the :id path parameter as a UUID.
func listingIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "listing id must be a UUID")
		return "", false
	}
	return id, true
}

// ApproveListing godoc
// @ID          approveListing
// @Summary     Approve a pending listing
// @Tags        Admin
// @Param       id  path  string  true  "Listing ID (UUID)"
// @Success     204  {string}  string "No Content"
// @Failure     403  {object}  handlers.ErrorResponse "Caller is not an admin"
// @Failure     404  {object}  handlers.ErrorResponse "Listing not found"
// @Failure     409  {object}  handlers.ErrorResponse "Listing is not pending"
// @Router      /admin/listings/{id}/approve [post]
func (h *Handlers) ApproveListing(c *gin.Context) {
	id, valid := listingIDParam(c)
	if !valid {
		return
	}
	if err := h.modSvc.Approve(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	middleware.CountListingEvent("approved")
	noContent(c)
}

// RejectListing godoc
// @ID          rejectListing
// @Summary     Reject a pending listing
// @Tags        Admin
// @Param       id  path  string  true  "Listing ID (UUID)"
// @Success     204  {string}  string "No Content"
// @Failure     403  {object}  handlers.ErrorResponse "Caller is not an admin"
// @Failure     404  {object}  handlers.ErrorResponse "Listing not found"
// @Failure     409  {object}  handlers.ErrorResponse "Listing is not pending"
// @Router      /admin/listings/{id}/reject [post]
func (h *Handlers) RejectListing(c *gin.Context) {
	id, valid := listingIDParam(c)
	if !valid {
		return
	}
	if err := h.modSvc.Reject(c.Request.Context(), userID(c), id); err != nil {
		failService(c, err)
		return
	}
	middleware.CountListingEvent("rejected")
	noContent(c)
}

// ReviewQueue godoc
// @ID          reviewQueue
// @Summary     Moderation queue
// @Description Returns listings for review, newest first. The status filter
// @Description accepts pending, approved, rejected or expired; when absent,
// @Description listings in every state are returned.
// @Tags        Admin
// @Produce     json
// @Param       status  query  string  false "Status filter"
// @Param       page    query  int     false "Page number" minimum(1) default(1)
// @Success     200  {array}   domain.Listing
// @Failure     403  {object}  handlers.ErrorResponse "Caller is not an admin"
// @Router      /admin/listings [get]
func (h *Handlers) ReviewQueue(c *gin.Context) {
	var status *domain.ListingStatus
	switch s := domain.ListingStatus(trimmed(c, "status")); s {
	case "":
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected, domain.StatusExpired:
		status = &s
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
		return
	}
	page := utils.PageNumber(c.Query("page"))

	items, err := h.modSvc.ListForReview(c.Request.Context(), userID(c), status, page)
	if err != nil {
		failService(c, err)
		return
	}
	if items == nil {
		items = []domain.Listing{}
	}
	ok(c, http.StatusOK, items)
}

// AdminStats godoc
// @ID          adminStats
// @Summary     Marketplace counters
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  services.Stats
// @Failure     403  {object}  handlers.ErrorResponse "Caller is not an admin"
// @Router      /admin/stats [get]
func (h *Handlers) AdminStats(c *gin.Context) {
	stats, err := h.modSvc.GetStats(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, stats)
}

// SEOReport godoc
// @ID          seoReport
// @Summary     Metadata audit across approved listings
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  services.SEOReport
// @Failure     403  {object}  handlers.ErrorResponse "Caller is not an admin"
// @Router      /admin/listings/seo-report [get]
func (h *Handlers) SEOReport(c *gin.Context) {
	report, err := h.modSvc.GetSEOReport(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}
