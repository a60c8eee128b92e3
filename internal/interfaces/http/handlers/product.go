// internal/interfaces/http/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
)

const maxListLimit = 50

// ProductHandler serves the read-only catalog
type ProductHandler struct {
	productService *product.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"products": summaries(products), "count": len(products)})
}

// GetNewArrivals handles GET /products/new-arrivals
func (h *ProductHandler) GetNewArrivals(c *gin.Context) {
	limit, ok := queryLimit(c, product.DefaultNewArrivals)
	if !ok {
		return
	}
	products, err := h.productService.NewArrivals(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"products": summaries(products)})
}

// GetBestSellers handles GET /products/best-sellers
func (h *ProductHandler) GetBestSellers(c *gin.Context) {
	limit, ok := queryLimit(c, product.DefaultBestSellers)
	if !ok {
		return
	}
	products, err := h.productService.BestSellers(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"products": summaries(products)})
}

// GetProduct handles GET /products/:id. Inactive products are hidden.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.Error(c, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found"))
		return
	}

	prod, err := h.productService.Get(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !prod.IsActive {
		response.Error(c, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found"))
		return
	}

	response.Success(c, "", gin.H{"product": prod.Summarize()})
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxListLimit {
		response.Error(c, pkgerrors.New(pkgerrors.CodeValidation, "The given data was invalid").
			WithDetails(map[string]string{"limit": "must be between 1 and " + strconv.Itoa(maxListLimit)}))
		return 0, false
	}
	return limit, true
}

func summaries(products []product.Product) []product.Summary {
	result := make([]product.Summary, 0, len(products))
	for i := range products {
		result = append(result, products[i].Summarize())
	}
	return result
}
