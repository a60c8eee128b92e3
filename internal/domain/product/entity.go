// internal/domain/product/entity.go
package product

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry. The cart and wishlist only read it.
type Product struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"not null;size:255" json:"name"`
	Slug          string              `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description   string              `gorm:"type:text" json:"description"`
	Price         decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	DiscountPrice decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"discount_price"`
	Image         string              `gorm:"size:500" json:"image"`
	Category      string              `gorm:"size:100;index" json:"category"`
	Stock         int                 `gorm:"not null;default:0" json:"stock"`
	IsActive      bool                `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// HasDiscount reports whether a discount price is set and lower than the list price
func (p *Product) HasDiscount() bool {
	return p.DiscountPrice.Valid && p.DiscountPrice.Decimal.LessThan(p.Price)
}

// FinalPrice is the discount price when it applies, otherwise the list price
func (p *Product) FinalPrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// Validate checks the catalog invariants
func (p *Product) Validate() error {
	if !p.Price.IsPositive() {
		return fmt.Errorf("product %q: price must be greater than zero", p.Slug)
	}
	if p.DiscountPrice.Valid && !p.DiscountPrice.Decimal.LessThan(p.Price) {
		return fmt.Errorf("product %q: discount price must be lower than price", p.Slug)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %q: stock cannot be negative", p.Slug)
	}
	return nil
}

// Summary is the client-facing projection of a product
type Summary struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Description   string  `json:"description,omitempty"`
	Price         string  `json:"price"`
	DiscountPrice *string `json:"discount_price"`
	FinalPrice    string  `json:"final_price"`
	HasDiscount   bool    `json:"has_discount"`
	Image         string  `json:"image,omitempty"`
	Category      string  `json:"category,omitempty"`
	Stock         int     `json:"stock"`
	IsActive      bool    `json:"is_active"`
}

// Summarize builds the client-facing projection
func (p *Product) Summarize() Summary {
	summary := Summary{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       FormatMoney(p.Price),
		FinalPrice:  FormatMoney(p.FinalPrice()),
		HasDiscount: p.HasDiscount(),
		Image:       p.Image,
		Category:    p.Category,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
	}
	if p.DiscountPrice.Valid {
		discount := FormatMoney(p.DiscountPrice.Decimal)
		summary.DiscountPrice = &discount
	}
	return summary
}

// FormatMoney renders an amount with two decimal places
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
