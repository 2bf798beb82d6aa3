// Profile HTTP handlers.
//
// This file exposes the current user's contact card:
//   - GET /api/v1/me/profile
//   - PUT /api/v1/me/profile  (partial update; omitted fields keep their value)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bazaargah/go-bazaar-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for a partial profile update.
// Only the fields present in the body are touched.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" example:"علی رضایی"`
	Phone    *string `json:"phone,omitempty" example:"09123456789"`
	City     *string `json:"city,omitempty" example:"تهران"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Current user's profile
// @Tags        Profile
// @Produce     json
// @Success     200  {object}  domain.Profile
// @Failure     404  {object}  handlers.ErrorResponse "Profile not found"
// @Router      /me/profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdateProfileRequest  true  "Fields to change"
// @Success     200  {object}  domain.Profile
// @Failure     400  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not found"
// @Router      /me/profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.profileSvc.Update(c.Request.Context(), userID(c), services.ProfilePatch{
		FullName: req.FullName,
		Phone:    req.Phone,
		City:     req.City,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
