package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"memorial-storefront/internal/middleware"
	"memorial-storefront/internal/models"
)

type ProfileStore interface {
	CreateProfile(ctx context.Context, input models.ProfileInput) (*models.Profile, error)
}

type ProfilesHandler struct {
	profiles ProfileStore
}

func NewProfilesHandler(profiles ProfileStore) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// CreateProfile godoc
// @Summary     Create my profile
// @Description Creates the profile row for the authenticated user. The profile id is the user id.
// @Tags        profiles
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body     models.CreateProfileRequest true "Profile"
// @Success     201 {object} models.Profile
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /profiles [post]
func (h *ProfilesHandler) CreateProfile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	profile, err := h.profiles.CreateProfile(c.Request.Context(), models.ProfileInput{
		ID:       userID,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, err, "failed to create profile")
		return
	}
	c.JSON(http.StatusCreated, profile)
}
