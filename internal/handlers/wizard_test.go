package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"memorial-storefront/internal/handlers"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/services"
	"memorial-storefront/internal/supabase"
	"memorial-storefront/internal/validation"
	"memorial-storefront/internal/wizard"
)

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type wizardCatalog struct{}

func (wizardCatalog) GetProductWithOptions(ctx context.Context, id string) (*models.Product, error) {
	if id != "p-candle" {
		return nil, supabase.ErrNotFound
	}
	return &models.Product{
		ID:    "p-candle",
		Name:  "Memorial Candle",
		Price: decimal.NewFromInt(30),
		ProductSizes: []models.ProductSize{
			{ID: "s-large", PriceAdjustment: decimal.NewFromInt(5)},
		},
	}, nil
}

func (wizardCatalog) GetTheme(ctx context.Context, id string) (*models.ProductTheme, error) {
	return &models.ProductTheme{ID: id, Name: "Garden", PriceAdjustment: decimal.NewFromInt(10)}, nil
}

func (wizardCatalog) GetFormat(ctx context.Context, id string) (*models.ProductFormat, error) {
	return &models.ProductFormat{ID: id, Name: "Printed"}, nil
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, state models.CompositeState) (*models.SubmissionResult, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionResult), args.Error(1)
}

func newWizardRouter(submitter wizard.Submitter) *gin.Engine {
	orchestrator := wizard.NewOrchestrator(wizard.NewMemoryStore(time.Hour), validation.New(), wizardCatalog{}, submitter)
	h := handlers.NewWizardHandler(orchestrator)

	router := gin.New()
	sessions := router.Group("/wizard/sessions")
	sessions.POST("", h.StartSession)
	sessions.GET("/:id", h.GetSession)
	sessions.PUT("/:id/steps/:step", h.UpdateStep)
	sessions.POST("/:id/photos", h.UploadPhotos)
	sessions.DELETE("/:id/photos/:photo_id", h.RemovePhoto)
	sessions.POST("/:id/cart", h.AddCartItem)
	sessions.PATCH("/:id/cart/:item_id", h.UpdateCartItem)
	sessions.DELETE("/:id/cart/:item_id", h.RemoveCartItem)
	sessions.POST("/:id/advance", h.Advance)
	sessions.POST("/:id/retreat", h.Retreat)
	sessions.GET("/:id/review", h.Review)
	sessions.POST("/:id/submit", h.Submit)
	return router
}

func startSession(t *testing.T, router http.Handler) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/wizard/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var session wizard.Session
	decode(t, w, &session)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, wizard.StepMemorialInfo, session.Step)
	return session.ID
}

func uploadPhoto(t *testing.T, router http.Handler, sessionID, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photos", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/wizard/sessions/"+sessionID+"/photos", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// completeSteps walks a session to the review step with valid values and
// returns the cart item id.
func completeSteps(t *testing.T, router http.Handler, id string) string {
	t.Helper()
	base := "/wizard/sessions/" + id

	w := doJSON(t, router, http.MethodPut, base+"/steps/memorial-info", map[string]string{
		"fullName": "Jane Doe",
		"dob":      "1950-03-01T00:00:00Z",
		"dop":      "2024-01-10T00:00:00Z",
		"dom":      "2024-02-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, http.StatusOK, uploadPhoto(t, router, id, "grandma.jpg", jpegBytes).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, base+"/advance", nil).Code)

	w = doJSON(t, router, http.MethodPost, base+"/cart", models.AddCartItemRequest{ProductID: "p-candle", SizeID: "s-large"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session wizard.Session
	decode(t, w, &session)
	require.Len(t, session.Drafts.MemorialKit.CartItems, 1)
	itemID := session.Drafts.MemorialKit.CartItems[0].ID
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, base+"/advance", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, base+"/steps/theme", `{"selectedThemeId":"th-1"}`).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPost, base+"/advance", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, base+"/steps/format", `{"selectedFormatId":"fm-1"}`).Code)
	w = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	require.Equal(t, wizard.StepReview, session.Step)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, base+"/steps/review", `{"email":"family@example.com"}`).Code)
	return itemID
}

func TestWizardHandler_FullFlow(t *testing.T) {
	submitter := new(MockSubmitter)
	router := newWizardRouter(submitter)
	id := startSession(t, router)
	completeSteps(t, router, id)

	w := doJSON(t, router, http.MethodGet, "/wizard/sessions/"+id+"/review", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary wizard.ReviewSummary
	decode(t, w, &summary)
	assert.True(t, summary.Subtotal.Equal(decimal.NewFromInt(35)))
	assert.True(t, summary.ThemeAdjustment.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(45)))

	var submitted models.CompositeState
	submitter.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { submitted = args.Get(1).(models.CompositeState) }).
		Return(&models.SubmissionResult{OrderID: "o1", CheckoutSessionID: "cs_1", CheckoutURL: "https://checkout.stripe.com/cs_1"}, nil)

	w = doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp handlers.SubmitResponse
	decode(t, w, &resp)
	assert.Equal(t, "o1", resp.OrderID)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", resp.CheckoutURL)

	assert.Equal(t, "family@example.com", submitted.Email.Email)
	require.Len(t, submitted.MemorialInfo.Photos, 1)
	require.NotNil(t, submitted.MemorialInfo.Photos[0].File)
	assert.Equal(t, "image/jpeg", submitted.MemorialInfo.Photos[0].File.ContentType)
	assert.Equal(t, jpegBytes, submitted.MemorialInfo.Photos[0].File.Data)
	assert.True(t, submitted.MemorialKit.CartItems[0].TotalPrice.Equal(decimal.NewFromInt(35)))

	// Photo bytes never leave the server.
	assert.NotContains(t, w.Body.String(), `"data"`)

	w = doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestWizardHandler_AdvanceReportsFieldErrors(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp models.ValidationErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, validation.MsgFullNameRequired, resp.Fields["fullName"])
	assert.Equal(t, validation.MsgDOMRequired, resp.Fields["dom"])
	assert.Equal(t, validation.MsgPhotosRequired, resp.Fields["photos"])

	w = doJSON(t, router, http.MethodGet, "/wizard/sessions/"+id, nil)
	var session wizard.Session
	decode(t, w, &session)
	assert.Equal(t, wizard.StepMemorialInfo, session.Step)
}

func TestWizardHandler_RetreatWithoutValidation(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)
	completeSteps(t, router, id)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/wizard/sessions/"+id+"/steps/format", `{"selectedFormatId":""}`).Code)

	w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/retreat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session wizard.Session
	decode(t, w, &session)
	assert.Equal(t, wizard.StepFormat, session.Step)
}

func TestWizardHandler_SubmitRejectsInvalidSteps(t *testing.T) {
	submitter := new(MockSubmitter)
	router := newWizardRouter(submitter)
	id := startSession(t, router)
	completeSteps(t, router, id)

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/wizard/sessions/"+id+"/steps/review", `{"email":"not-an-email"}`).Code)

	w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp models.ValidationErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, validation.MsgEmailInvalid, resp.Fields["review.email"])
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestWizardHandler_SubmitFailureIsGeneric(t *testing.T) {
	submitter := new(MockSubmitter)
	router := newWizardRouter(submitter)
	id := startSession(t, router)
	completeSteps(t, router, id)

	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("failed to upload photos: bucket not found"))

	w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to submit order. Please try again."}`, w.Body.String())

	// The session stays editable so the customer can retry.
	w = doJSON(t, router, http.MethodPut, "/wizard/sessions/"+id+"/steps/review", `{"email":"family@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWizardHandler_SubmitHidesNotFoundDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unknown product", fmt.Errorf("failed to create order: %w: p-candle", services.ErrProductNotFound)},
		{"missing row", fmt.Errorf("failed to create order: %w", supabase.ErrNotFound)},
		{"rejected checkout request", fmt.Errorf("failed to start checkout: %w", &validation.Error{Fields: validation.FieldErrors{"orderTotal": "Order total must be greater than zero"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := new(MockSubmitter)
			router := newWizardRouter(submitter)
			id := startSession(t, router)
			completeSteps(t, router, id)

			submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"Failed to submit order. Please try again."}`, w.Body.String())
		})
	}
}

func TestWizardHandler_SubmitBeforeReview(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)

	w := doJSON(t, router, http.MethodPost, "/wizard/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizardHandler_CartEditing(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)
	itemID := completeSteps(t, router, id)
	cart := "/wizard/sessions/" + id + "/cart/"

	w := doJSON(t, router, http.MethodPatch, cart+itemID, `{"quantity":3,"customText":"Forever loved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session wizard.Session
	decode(t, w, &session)
	item := session.Drafts.MemorialKit.CartItems[0]
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.TotalPrice.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "Forever loved", item.Text)

	w = doJSON(t, router, http.MethodPatch, cart+itemID, `{"customText":"a","presetTextId":"pt-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodDelete, cart+"missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, cart+itemID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	assert.Empty(t, session.Drafts.MemorialKit.CartItems)
}

func TestWizardHandler_BadRequests(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)
	base := "/wizard/sessions/" + id

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"unknown step", http.MethodPut, base + "/steps/payment", `{}`, http.StatusBadRequest},
		{"kit is not bound directly", http.MethodPut, base + "/steps/memorial-kit", `{}`, http.StatusBadRequest},
		{"malformed step values", http.MethodPut, base + "/steps/theme", `{"selectedThemeId":`, http.StatusBadRequest},
		{"cart without product", http.MethodPost, base + "/cart", `{}`, http.StatusBadRequest},
		{"unknown size", http.MethodPost, base + "/cart", `{"productId":"p-candle","sizeId":"s-tiny"}`, http.StatusBadRequest},
		{"unknown product", http.MethodPost, base + "/cart", `{"productId":"p-ghost"}`, http.StatusNotFound},
		{"unknown session", http.MethodGet, "/wizard/sessions/nope", nil, http.StatusNotFound},
		{"unknown photo", http.MethodDelete, base + "/photos/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestWizardHandler_UploadPhotos(t *testing.T) {
	router := newWizardRouter(new(MockSubmitter))
	id := startSession(t, router)

	w := uploadPhoto(t, router, id, "grandma.jpg", jpegBytes)
	require.Equal(t, http.StatusOK, w.Code)
	var session wizard.Session
	decode(t, w, &session)
	require.Len(t, session.Drafts.MemorialInfo.Photos, 1)
	photo := session.Drafts.MemorialInfo.Photos[0]
	assert.Equal(t, "grandma.jpg", photo.File.Filename)
	assert.Equal(t, int64(len(jpegBytes)), photo.File.Size)
	assert.Nil(t, photo.File.Data)

	w = doJSON(t, router, http.MethodDelete, "/wizard/sessions/"+id+"/photos/"+photo.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	assert.Empty(t, session.Drafts.MemorialInfo.Photos)

	w = uploadPhoto(t, router, id, "empty.jpg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/wizard/sessions/"+id+"/photos", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
