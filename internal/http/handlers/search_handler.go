// Search and category HTTP handlers.
//
// This file exposes the public browse endpoints:
//   - GET /api/v1/listings    (filtered, paginated search over approved ads)
//   - GET /api/v1/categories  (top-level category list)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazaargah/go-bazaar-backend/internal/services"
	"github.com/bazaargah/go-bazaar-backend/internal/utils"
)

// SearchListings godoc
// @ID          searchListings
// @Summary     Search approved listings
// @Description Returns one page of approved listings, newest first. Filters
// @Description compose with AND: search matches titles case-insensitively,
// @Description category takes a category slug, city matches exactly. An
// @Description unknown category slug yields an empty page, not an error.
// @Tags        Search
// @Produce     json
// @Param       search    query  string  false "Title substring"
// @Param       category  query  string  false "Category slug"
// @Param       city      query  string  false "City (exact)"
// @Param       page      query  int     false "Page number" minimum(1) default(1)
// @Success     200  {object}  services.Page
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /listings [get]
func (h *Handlers) SearchListings(c *gin.Context) {
	page := utils.PageNumber(c.Query("page"))

	res, err := h.searchSvc.Search(c.Request.Context(), services.Filters{
		Query:        trimmed(c, "search"),
		CategorySlug: trimmed(c, "category"),
		City:         trimmed(c, "city"),
	}, page)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     Top-level categories
// @Tags        Search
// @Produce     json
// @Success     200  {array}  domain.Category
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.searchSvc.Categories(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, cats)
}
