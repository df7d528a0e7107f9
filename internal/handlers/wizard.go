package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/wizard"
)

const (
	maxPhotoUploadMemory = 32 << 20
	submitFailedMessage  = "Failed to submit order. Please try again."
)

var photoFieldNames = []string{"photos", "photo", "files", "file"}

type WizardHandler struct {
	orchestrator *wizard.Orchestrator
}

func NewWizardHandler(orchestrator *wizard.Orchestrator) *WizardHandler {
	return &WizardHandler{orchestrator: orchestrator}
}

// SubmitResponse is returned once the order exists and checkout has started.
// The browser navigates to CheckoutURL.
type SubmitResponse struct {
	OrderID     string          `json:"order_id"`
	CheckoutURL string          `json:"checkout_url"`
	Session     *wizard.Session `json:"session"`
}

// StartSession godoc
// @Summary     Start a wizard session
// @Tags        wizard
// @Produce     json
// @Success     201 {object} wizard.Session
// @Failure     500 {object} models.ErrorResponse
// @Router      /wizard/sessions [post]
func (h *WizardHandler) StartSession(c *gin.Context) {
	session, err := h.orchestrator.Start(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to start session")
		return
	}
	c.JSON(http.StatusCreated, session.Redacted())
}

// GetSession godoc
// @Summary     Get a wizard session
// @Tags        wizard
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} wizard.Session
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id} [get]
func (h *WizardHandler) GetSession(c *gin.Context) {
	session, err := h.orchestrator.Session(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err, "failed to load session")
}

// UpdateStep godoc
// @Summary     Bind step values
// @Description Stores the values of one step without validating them. The memorial-kit step is edited through the cart endpoints.
// @Tags        wizard
// @Accept      json
// @Produce     json
// @Param       id   path     string true "Session ID"
// @Param       step path     string true "Step name" Enums(memorial-info, theme, format, review)
// @Success     200 {object} wizard.Session
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/steps/{step} [put]
func (h *WizardHandler) UpdateStep(c *gin.Context) {
	step, err := wizard.ParseStep(c.Param("step"))
	if err != nil {
		respondError(c, err, "failed to update step")
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read request body"})
		return
	}

	session, err := h.orchestrator.UpdateDraft(c.Request.Context(), c.Param("id"), step, raw)
	h.respondSession(c, session, err, "failed to update step")
}

// UploadPhotos godoc
// @Summary     Add memorial photos
// @Description Adds one or more photos to the memorial information. Photos are uploaded to storage only on submission.
// @Tags        wizard
// @Accept      multipart/form-data
// @Produce     json
// @Param       id     path     string true "Session ID"
// @Param       photos formData file   true "Photo files"
// @Success     200 {object} wizard.Session
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/photos [post]
func (h *WizardHandler) UploadPhotos(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxPhotoUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	var files []*multipart.FileHeader
	for _, name := range photoFieldNames {
		if f := c.Request.MultipartForm.File[name]; len(f) > 0 {
			files = f
			break
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no photos uploaded",
			Message: fmt.Sprintf("provide files with one of these field names: %v", photoFieldNames),
		})
		return
	}

	ctx := c.Request.Context()
	var session *wizard.Session
	for _, header := range files {
		file, err := readPhoto(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to read photo",
				Message: err.Error(),
			})
			return
		}

		session, err = h.orchestrator.AddPhoto(ctx, c.Param("id"), file, c.PostForm("preview"))
		if err != nil {
			respondError(c, err, "failed to add photo")
			return
		}
	}

	c.JSON(http.StatusOK, session.Redacted())
}

// RemovePhoto godoc
// @Summary     Remove a memorial photo
// @Tags        wizard
// @Produce     json
// @Param       id       path     string true "Session ID"
// @Param       photo_id path     string true "Photo ID"
// @Success     200 {object} wizard.Session
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/photos/{photo_id} [delete]
func (h *WizardHandler) RemovePhoto(c *gin.Context) {
	session, err := h.orchestrator.RemovePhoto(c.Request.Context(), c.Param("id"), c.Param("photo_id"))
	h.respondSession(c, session, err, "failed to remove photo")
}

// AddCartItem godoc
// @Summary     Add a product to the memorial kit
// @Description Prices the product with the chosen size and finish and adds it with quantity 1.
// @Tags        wizard
// @Accept      json
// @Produce     json
// @Param       id      path     string                    true "Session ID"
// @Param       request body     models.AddCartItemRequest true "Product and options"
// @Success     200 {object} wizard.Session
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/cart [post]
func (h *WizardHandler) AddCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session, err := h.orchestrator.AddToCart(c.Request.Context(), c.Param("id"), req)
	h.respondSession(c, session, err, "failed to add to cart")
}

// UpdateCartItem godoc
// @Summary     Update a memorial kit line
// @Description Changes quantity, custom text or preset text. Custom and preset text are mutually exclusive.
// @Tags        wizard
// @Accept      json
// @Produce     json
// @Param       id      path     string                       true "Session ID"
// @Param       item_id path     string                       true "Cart item ID"
// @Param       request body     models.UpdateCartItemRequest true "Changes"
// @Success     200 {object} wizard.Session
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/cart/{item_id} [patch]
func (h *WizardHandler) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session, err := h.orchestrator.UpdateCartItem(c.Request.Context(), c.Param("id"), c.Param("item_id"), req)
	h.respondSession(c, session, err, "failed to update cart item")
}

// RemoveCartItem godoc
// @Summary     Remove a memorial kit line
// @Tags        wizard
// @Produce     json
// @Param       id      path     string true "Session ID"
// @Param       item_id path     string true "Cart item ID"
// @Success     200 {object} wizard.Session
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/cart/{item_id} [delete]
func (h *WizardHandler) RemoveCartItem(c *gin.Context) {
	session, err := h.orchestrator.RemoveFromCart(c.Request.Context(), c.Param("id"), c.Param("item_id"))
	h.respondSession(c, session, err, "failed to remove cart item")
}

// Advance godoc
// @Summary     Go to the next step
// @Description Validates the current step. Field errors are returned with 422 and the step does not change.
// @Tags        wizard
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} wizard.Session
// @Failure     404 {object} models.ErrorResponse
// @Failure     422 {object} models.ValidationErrorResponse
// @Router      /wizard/sessions/{id}/advance [post]
func (h *WizardHandler) Advance(c *gin.Context) {
	session, err := h.orchestrator.Advance(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err, "failed to advance")
}

// Retreat godoc
// @Summary     Go to the previous step
// @Tags        wizard
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} wizard.Session
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/retreat [post]
func (h *WizardHandler) Retreat(c *gin.Context) {
	session, err := h.orchestrator.Retreat(c.Request.Context(), c.Param("id"))
	h.respondSession(c, session, err, "failed to go back")
}

// Review godoc
// @Summary     Review summary
// @Description Returns the merged wizard values with the kit subtotal and the theme adjustment.
// @Tags        wizard
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} wizard.ReviewSummary
// @Failure     404 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/review [get]
func (h *WizardHandler) Review(c *gin.Context) {
	summary, err := h.orchestrator.Review(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load review")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Submit godoc
// @Summary     Submit the wizard
// @Description Validates every step, uploads photos, creates the order and starts checkout. Redirect the browser to checkout_url.
// @Tags        wizard
// @Produce     json
// @Param       id  path     string true "Session ID"
// @Success     200 {object} handlers.SubmitResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     422 {object} models.ValidationErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /wizard/sessions/{id}/submit [post]
func (h *WizardHandler) Submit(c *gin.Context) {
	session, err := h.orchestrator.SubmitAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, submitFailedMessage)
		return
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"order_id":   session.OrderID,
	}).Info("redirecting to checkout")

	c.JSON(http.StatusOK, SubmitResponse{
		OrderID:     session.OrderID,
		CheckoutURL: session.CheckoutURL,
		Session:     session.Redacted(),
	})
}

func (h *WizardHandler) respondSession(c *gin.Context, session *wizard.Session, err error, generic string) {
	if err != nil {
		respondError(c, err, generic)
		return
	}
	c.JSON(http.StatusOK, session.Redacted())
}

func readPhoto(header *multipart.FileHeader) (models.PhotoFile, error) {
	src, err := header.Open()
	if err != nil {
		return models.PhotoFile{}, fmt.Errorf("failed to open %s: %w", header.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.PhotoFile{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	if len(data) == 0 {
		return models.PhotoFile{}, fmt.Errorf("%s is empty", header.Filename)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return models.PhotoFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
