// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/product"
)

// Item is one cart line owned by either a user or an anonymous session
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex:idx_cart_user_product;check:chk_cart_owner,(user_id IS NULL) <> (session_id IS NULL)" json:"user_id"`
	SessionID *string   `gorm:"size:100;uniqueIndex:idx_cart_session_product" json:"session_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_cart_user_product;uniqueIndex:idx_cart_session_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Item) TableName() string {
	return "cart"
}

// Line is a cart item joined with its product
type Line struct {
	Item     Item
	Product  *product.Product // nil when the product row no longer exists
	Subtotal decimal.Decimal
}

// Cart is the full cart of one owner
type Cart struct {
	Lines []Line
	Total decimal.Decimal
	Count int64
}

// Subtotal is quantity times the product's final price
func Subtotal(quantity int, prod *product.Product) decimal.Decimal {
	if prod == nil {
		return decimal.Zero
	}
	return prod.FinalPrice().Mul(decimal.NewFromInt(int64(quantity)))
}
