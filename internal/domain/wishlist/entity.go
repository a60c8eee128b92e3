package wishlist

import (
	"time"

	"github.com/your-org/storefront/internal/domain/product"
)

// Item represents a wishlist entry owned by either a user or an anonymous session
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex:idx_wishlist_user_product;check:chk_wishlist_owner,(user_id IS NULL) <> (session_id IS NULL)" json:"user_id"`
	SessionID *string   `gorm:"size:100;uniqueIndex:idx_wishlist_session_product" json:"session_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_wishlist_user_product;uniqueIndex:idx_wishlist_session_product" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Item) TableName() string {
	return "wishlists"
}

// Entry is a wishlist item joined with its product
type Entry struct {
	Item    Item
	Product *product.Product
}

// Wishlist holds every entry of one owner
type Wishlist struct {
	Entries []Entry
	Count   int64
}
