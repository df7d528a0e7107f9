package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"memorial-storefront/internal/middleware"
	"memorial-storefront/internal/models"
)

type ReviewStore interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	CreateReview(ctx context.Context, input models.ReviewInput) (*models.Review, error)
}

type ReviewsHandler struct {
	reviews ReviewStore
}

func NewReviewsHandler(reviews ReviewStore) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviews}
}

// CreateReview godoc
// @Summary     Review an order
// @Description Only paid orders placed by the caller can be reviewed.
// @Tags        reviews
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       id      path     string                     true "Order ID"
// @Param       request body     models.CreateReviewRequest true "Rating 1-5 and comment"
// @Success     201 {object} models.Review
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{id}/reviews [post]
func (h *ReviewsHandler) CreateReview(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	orderID := c.Param("id")
	order, err := h.reviews.GetOrder(ctx, orderID)
	if err != nil {
		respondError(c, err, "failed to load order")
		return
	}
	if !order.OwnedBy(userID, c.GetString(middleware.UserEmailKey)) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		return
	}
	if order.Status == models.OrderStatusPending || order.Status == models.OrderStatusCancelled {
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "order has not been paid"})
		return
	}

	review, err := h.reviews.CreateReview(ctx, models.ReviewInput{
		OrderID:   orderID,
		ProfileID: userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, err, "failed to create review")
		return
	}
	c.JSON(http.StatusCreated, review)
}
