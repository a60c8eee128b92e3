// internal/interfaces/http/handlers/requests.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" form:"product_id" binding:"required"`
	Quantity  *int `json:"quantity" form:"quantity" binding:"omitempty,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	CartID   uint `json:"cart_id" form:"cart_id" binding:"required"`
	Quantity int  `json:"quantity" form:"quantity" binding:"required,min=1"`
}

// CartItemRequest identifies a cart line
type CartItemRequest struct {
	CartID uint `json:"cart_id" form:"cart_id" binding:"required"`
}

// ProductRequest identifies a product
type ProductRequest struct {
	ProductID uint `json:"product_id" form:"product_id" binding:"required"`
}

// CartItemResponse is one line of GET /cart
type CartItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Subtotal  string           `json:"subtotal"`
	Product   *product.Summary `json:"product"`
	CreatedAt time.Time        `json:"created_at"`
}

// WishlistItemResponse is one entry of GET /wishlist
type WishlistItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Product   *product.Summary `json:"product"`
	CreatedAt time.Time        `json:"created_at"`
}

// bind decodes a JSON or form body into req, reporting failures as validation errors
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		response.Error(c, response.BindingError(err))
		return false
	}
	return true
}

func cartItemsResponse(lines []cart.Line) []CartItemResponse {
	items := make([]CartItemResponse, 0, len(lines))
	for _, line := range lines {
		items = append(items, CartItemResponse{
			ID:        line.Item.ID,
			ProductID: line.Item.ProductID,
			Quantity:  line.Item.Quantity,
			Subtotal:  product.FormatMoney(line.Subtotal),
			Product:   summarize(line.Product),
			CreatedAt: line.Item.CreatedAt,
		})
	}
	return items
}

func wishlistItemsResponse(entries []wishlist.Entry) []WishlistItemResponse {
	items := make([]WishlistItemResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, WishlistItemResponse{
			ID:        entry.Item.ID,
			ProductID: entry.Item.ProductID,
			Product:   summarize(entry.Product),
			CreatedAt: entry.Item.CreatedAt,
		})
	}
	return items
}

func summarize(prod *product.Product) *product.Summary {
	if prod == nil {
		return nil
	}
	summary := prod.Summarize()
	return &summary
}

// outcome classifies a mutation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() != pkgerrors.CodeInternal:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
