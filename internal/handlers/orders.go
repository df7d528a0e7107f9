package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"memorial-storefront/internal/middleware"
	"memorial-storefront/internal/models"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*models.OrderDetailResponse, error)
}

type OrderLister interface {
	ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error)
}

type OrdersHandler struct {
	orders   OrderService
	lister   OrderLister
	checkout CheckoutService
}

func NewOrdersHandler(orders OrderService, lister OrderLister, checkout CheckoutService) *OrdersHandler {
	return &OrdersHandler{
		orders:   orders,
		lister:   lister,
		checkout: checkout,
	}
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Creates a PENDING order with one item per cart item. The total is the sum of the item totals. An authenticated caller is linked as the order's profile.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       request body     models.CreateOrderRequest true "Email and wizard form data"
// @Success     200 {object} models.CreateOrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     422 {object} models.ValidationErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if userID, ok := middleware.UserID(c); ok {
		req.ProfileID = &userID
	}

	resp, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create order")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrder godoc
// @Summary     Get an order
// @Description Returns the order with its items. Signed-in owners get the full
// @Description order; guests get it without the email and memorial details.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       id  path     string true "Order ID"
// @Success     200 {object} models.OrderDetailResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders/{id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	detail, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load order")
		return
	}

	userID, signedIn := middleware.UserID(c)
	if !signedIn {
		c.JSON(http.StatusOK, detail.Redacted())
		return
	}
	// someone else's order looks the same as a missing one
	if !detail.Order.OwnedBy(userID, c.GetString(middleware.UserEmailKey)) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "order not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListMyOrders godoc
// @Summary     List my orders
// @Description Returns the orders placed with the authenticated user's email, newest first.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {array}  models.Order
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /orders [get]
func (h *OrdersHandler) ListMyOrders(c *gin.Context) {
	email := c.GetString(middleware.UserEmailKey)
	if email == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "token has no email claim"})
		return
	}

	orders, err := h.lister.ListOrdersByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// CreateCheckoutSession godoc
// @Summary     Create a checkout session
// @Description Starts a hosted card checkout for the order total. Redirect the customer to the returned url.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Param       request body     models.CreateCheckoutSessionRequest true "Order and redirect URLs"
// @Success     200 {object} models.CheckoutSessionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     422 {object} models.ValidationErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /checkout-sessions [post]
func (h *OrdersHandler) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.checkout.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create checkout session")
		return
	}
	c.JSON(http.StatusOK, resp)
}
