// internal/interfaces/http/handlers/wishlist.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

// WishlistHandler handles wishlist endpoints
type WishlistHandler struct {
	wishlistService *wishlist.Service
	productService  *product.Service
	metrics         *metrics.Metrics
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlistService *wishlist.Service, productService *product.Service, m *metrics.Metrics) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		productService:  productService,
		metrics:         m,
	}
}

// GetWishlist handles GET /wishlist
func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	result, err := h.wishlistService.List(c.Request.Context(), middleware.GetOwnerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "", gin.H{
		"wishlist_items": wishlistItemsResponse(result.Entries),
		"count":          result.Count,
	})
}

// AddToWishlist handles POST /wishlist/add
func (h *WishlistHandler) AddToWishlist(c *gin.Context) {
	productID, ok := h.bindProduct(c)
	if !ok {
		return
	}

	key := middleware.GetOwnerFromContext(c)
	count, err := h.wishlistService.Add(c.Request.Context(), key, productID)
	h.metrics.IncMutation("wishlist", "add", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Product added to wishlist", gin.H{"wishlist_count": count})
}

// RemoveFromWishlist handles POST /wishlist/remove
func (h *WishlistHandler) RemoveFromWishlist(c *gin.Context) {
	productID, ok := h.bindProduct(c)
	if !ok {
		return
	}

	key := middleware.GetOwnerFromContext(c)
	count, err := h.wishlistService.Remove(c.Request.Context(), key, productID)
	h.metrics.IncMutation("wishlist", "remove", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "Product removed from wishlist", gin.H{"wishlist_count": count})
}

// ToggleWishlist handles POST /wishlist/toggle
func (h *WishlistHandler) ToggleWishlist(c *gin.Context) {
	productID, ok := h.bindProduct(c)
	if !ok {
		return
	}

	key := middleware.GetOwnerFromContext(c)
	inWishlist, count, err := h.wishlistService.Toggle(c.Request.Context(), key, productID)
	h.metrics.IncMutation("wishlist", "toggle", key.Kind(), outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Product removed from wishlist"
	if inWishlist {
		message = "Product added to wishlist"
	}
	response.Success(c, message, gin.H{
		"in_wishlist":    inWishlist,
		"wishlist_count": count,
	})
}

// CheckWishlist handles POST /wishlist/check
func (h *WishlistHandler) CheckWishlist(c *gin.Context) {
	productID, ok := h.bindProduct(c)
	if !ok {
		return
	}

	inWishlist, err := h.wishlistService.Check(c.Request.Context(), middleware.GetOwnerFromContext(c), productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "", gin.H{"in_wishlist": inWishlist})
}

// GetWishlistCount handles GET /wishlist/count
func (h *WishlistHandler) GetWishlistCount(c *gin.Context) {
	count, err := h.wishlistService.Count(c.Request.Context(), middleware.GetOwnerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, "", gin.H{"wishlist_count": count})
}

func (h *WishlistHandler) bindProduct(c *gin.Context) (uint, bool) {
	var req ProductRequest
	if !bind(c, &req) {
		return 0, false
	}

	exists, err := h.productService.Exists(c.Request.Context(), req.ProductID)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	if !exists {
		response.Error(c, response.InvalidReference("product_id"))
		return 0, false
	}
	return req.ProductID, true
}
