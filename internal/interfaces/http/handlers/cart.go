// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService    *cart.Service
	productService *product.Service
	metrics        *metrics.Metrics
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, productService *product.Service, m *metrics.Metrics) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		productService: productService,
		metrics:        m,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	result, err := h.cartService.List(c.Request.Context(), middleware.GetOwnerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "", gin.H{
		"cart_items": cartItemsResponse(result.Lines),
		"total":      product.FormatMoney(result.Total),
		"count":      result.Count,
	})
}

// AddToCart handles POST /cart/add
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if !bind(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	ctx := c.Request.Context()
	exists, err := h.productService.Exists(ctx, req.ProductID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !exists {
		response.Error(c, response.InvalidReference("product_id"))
		return
	}

	key := middleware.GetOwnerFromContext(c)
	count, err := h.cartService.Add(ctx, key, req.ProductID, quantity)
	h.metrics.IncMutation("cart", "add", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Product added to cart", gin.H{"cart_count": count})
}

// UpdateCart handles POST /cart/update
func (h *CartHandler) UpdateCart(c *gin.Context) {
	var req UpdateCartItemRequest
	if !bind(c, &req) {
		return
	}
	if !h.requireCartItem(c, req.CartID) {
		return
	}

	key := middleware.GetOwnerFromContext(c)
	subtotal, err := h.cartService.Update(c.Request.Context(), key, req.CartID, req.Quantity)
	h.metrics.IncMutation("cart", "update", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Cart updated", gin.H{"subtotal": product.FormatMoney(subtotal)})
}

// RemoveFromCart handles POST /cart/remove
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	var req CartItemRequest
	if !bind(c, &req) {
		return
	}
	if !h.requireCartItem(c, req.CartID) {
		return
	}

	key := middleware.GetOwnerFromContext(c)
	count, err := h.cartService.Remove(c.Request.Context(), key, req.CartID)
	h.metrics.IncMutation("cart", "remove", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Item removed from cart", gin.H{"cart_count": count})
}

// ClearCart handles POST /cart/clear
func (h *CartHandler) ClearCart(c *gin.Context) {
	key := middleware.GetOwnerFromContext(c)
	count, err := h.cartService.Clear(c.Request.Context(), key)
	h.metrics.IncMutation("cart", "clear", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Cart cleared", gin.H{"cart_count": count})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	count, err := h.cartService.Count(c.Request.Context(), middleware.GetOwnerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "", gin.H{"cart_count": count})
}

func (h *CartHandler) requireCartItem(c *gin.Context, id uint) bool {
	exists, err := h.cartService.ItemExists(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if !exists {
		response.Error(c, response.InvalidReference("cart_id"))
		return false
	}
	return true
}
