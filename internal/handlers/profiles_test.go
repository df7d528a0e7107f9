package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"memorial-storefront/internal/handlers"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/supabase"
)

func TestProfilesHandler_CreateProfile(t *testing.T) {
	store := new(MockStore)
	store.On("CreateProfile", mock.Anything, models.ProfileInput{ID: "user-1", Email: "u@example.com", FullName: "Sam Doe"}).
		Return(&models.Profile{ID: "user-1", Email: "u@example.com", FullName: "Sam Doe"}, nil)

	router := gin.New()
	router.POST("/profiles", asUser("user-1", "u@example.com"), handlers.NewProfilesHandler(store).CreateProfile)

	w := doJSON(t, router, http.MethodPost, "/profiles", `{"email":"u@example.com","full_name":"Sam Doe"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"user-1"`)

	w = doJSON(t, router, http.MethodPost, "/profiles", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfilesHandler_RequiresUser(t *testing.T) {
	router := gin.New()
	router.POST("/profiles", handlers.NewProfilesHandler(new(MockStore)).CreateProfile)

	w := doJSON(t, router, http.MethodPost, "/profiles", `{"email":"u@example.com"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

var reviewer = "user-1"

func newReviewRouter(store *MockStore) *gin.Engine {
	router := gin.New()
	router.POST("/orders/:id/reviews", asUser("user-1", ""), handlers.NewReviewsHandler(store).CreateReview)
	return router
}

func TestReviewsHandler_CreateReview(t *testing.T) {
	store := new(MockStore)
	store.On("GetOrder", mock.Anything, "o1").Return(&models.Order{ID: "o1", ProfileID: &reviewer, Status: models.OrderStatusPaid}, nil)
	store.On("CreateReview", mock.Anything, models.ReviewInput{OrderID: "o1", ProfileID: "user-1", Rating: 5, Comment: "Beautiful"}).
		Return(&models.Review{ID: "r1", OrderID: "o1", ProfileID: "user-1", Rating: 5, Comment: "Beautiful"}, nil)

	w := doJSON(t, newReviewRouter(store), http.MethodPost, "/orders/o1/reviews", `{"rating":5,"comment":"Beautiful"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"r1"`)
}

func TestReviewsHandler_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		setup func(store *MockStore)
		want  int
	}{
		{
			name: "rating out of range",
			body: `{"rating":6}`,
			want: http.StatusBadRequest,
		},
		{
			name: "unpaid order",
			body: `{"rating":4}`,
			setup: func(store *MockStore) {
				store.On("GetOrder", mock.Anything, "o1").Return(&models.Order{ID: "o1", ProfileID: &reviewer, Status: models.OrderStatusPending}, nil)
			},
			want: http.StatusConflict,
		},
		{
			name: "unknown order",
			body: `{"rating":4}`,
			setup: func(store *MockStore) {
				store.On("GetOrder", mock.Anything, "o1").Return(nil, supabase.ErrNotFound)
			},
			want: http.StatusNotFound,
		},
		{
			name: "someone else's order",
			body: `{"rating":4}`,
			setup: func(store *MockStore) {
				other := "user-2"
				store.On("GetOrder", mock.Anything, "o1").Return(&models.Order{ID: "o1", Email: "other@example.com", ProfileID: &other, Status: models.OrderStatusPaid}, nil)
			},
			want: http.StatusNotFound,
		},
		{
			name: "write failure",
			body: `{"rating":4}`,
			setup: func(store *MockStore) {
				store.On("GetOrder", mock.Anything, "o1").Return(&models.Order{ID: "o1", ProfileID: &reviewer, Status: models.OrderStatusCompleted}, nil)
				store.On("CreateReview", mock.Anything, mock.Anything).Return(nil, errors.New("(42501) permission denied"))
			},
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			if tt.setup != nil {
				tt.setup(store)
			}

			w := doJSON(t, newReviewRouter(store), http.MethodPost, "/orders/o1/reviews", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
