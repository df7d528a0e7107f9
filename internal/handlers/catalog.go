package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"memorial-storefront/internal/models"
)

// CatalogReader is the read side of the persistence client.
type CatalogReader interface {
	ListProductTypes(ctx context.Context) ([]models.ProductType, error)
	ListProductsByType(ctx context.Context, typeID string) ([]models.Product, error)
	GetProductWithOptions(ctx context.Context, productID string) (*models.Product, error)
	ListThemes(ctx context.Context) ([]models.ProductTheme, error)
	ListFormats(ctx context.Context) ([]models.ProductFormat, error)
}

type CatalogHandler struct {
	catalog CatalogReader
}

func NewCatalogHandler(catalog CatalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProductTypes godoc
// @Summary     List product types
// @Tags        catalog
// @Produce     json
// @Success     200 {array}  models.ProductType
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/product-types [get]
func (h *CatalogHandler) ListProductTypes(c *gin.Context) {
	types, err := h.catalog.ListProductTypes(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load product types")
		return
	}
	c.JSON(http.StatusOK, types)
}

// ListProductsByType godoc
// @Summary     List the products of a type
// @Tags        catalog
// @Produce     json
// @Param       id  path     string true "Product type ID"
// @Success     200 {array}  models.Product
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/product-types/{id}/products [get]
func (h *CatalogHandler) ListProductsByType(c *gin.Context) {
	products, err := h.catalog.ListProductsByType(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary     Get a product with its options
// @Description Returns the product with its formats, sizes, finishes, themes and preset texts.
// @Tags        catalog
// @Produce     json
// @Param       id  path     string true "Product ID"
// @Success     200 {object} models.Product
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProductWithOptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListThemes godoc
// @Summary     List themes
// @Tags        catalog
// @Produce     json
// @Success     200 {array}  models.ProductTheme
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/themes [get]
func (h *CatalogHandler) ListThemes(c *gin.Context) {
	themes, err := h.catalog.ListThemes(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load themes")
		return
	}
	c.JSON(http.StatusOK, themes)
}

// ListFormats godoc
// @Summary     List formats
// @Tags        catalog
// @Produce     json
// @Success     200 {array}  models.ProductFormat
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/formats [get]
func (h *CatalogHandler) ListFormats(c *gin.Context) {
	formats, err := h.catalog.ListFormats(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load formats")
		return
	}
	c.JSON(http.StatusOK, formats)
}

// GetKit godoc
// @Summary     Memorial kit catalog
// @Description Returns every product type with its products, in product type order.
// @Tags        catalog
// @Produce     json
// @Success     200 {array}  models.ProductTypeWithProducts
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalog/kit [get]
func (h *CatalogHandler) GetKit(c *gin.Context) {
	ctx := c.Request.Context()

	types, err := h.catalog.ListProductTypes(ctx)
	if err != nil {
		respondError(c, err, "failed to load memorial kit")
		return
	}

	kit := make([]models.ProductTypeWithProducts, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, productType := range types {
		g.Go(func() error {
			products, err := h.catalog.ListProductsByType(gctx, productType.ID)
			if err != nil {
				return err
			}
			if products == nil {
				products = []models.Product{}
			}
			kit[i] = models.ProductTypeWithProducts{ProductType: productType, Products: products}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondError(c, err, "failed to load memorial kit")
		return
	}

	c.JSON(http.StatusOK, kit)
}
