// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/owner"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db       *gorm.DB
	products *product.Service
}

// NewService creates a new cart service
func NewService(db *gorm.DB, products *product.Service) *Service {
	return &Service{
		db:       db,
		products: products,
	}
}

// List returns every line owned by key with subtotals and the cart total
func (s *Service) List(ctx context.Context, key owner.Key) (*Cart, error) {
	if err := requireOwner(key); err != nil {
		return nil, err
	}

	var items []Item
	if err := key.Scope(s.db.WithContext(ctx)).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	result := &Cart{
		Lines: make([]Line, 0, len(items)),
		Total: decimal.Zero,
		Count: int64(len(items)),
	}
	for _, item := range items {
		prod := products[item.ProductID]
		line := Line{
			Item:     item,
			Product:  prod,
			Subtotal: Subtotal(item.Quantity, prod),
		}
		result.Total = result.Total.Add(line.Subtotal)
		result.Lines = append(result.Lines, line)
	}

	return result, nil
}

// Add puts quantity units of a product into the cart, merging with an existing line.
// It returns the number of lines owned by key afterwards.
func (s *Service) Add(ctx context.Context, key owner.Key, productID uint, quantity int) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}
	if quantity < 1 {
		return 0, invalidQuantity()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.addInTx(tx, key, productID, quantity)
	})
	if err != nil {
		return 0, err
	}

	return s.Count(ctx, key)
}

func (s *Service) addInTx(tx *gorm.DB, key owner.Key, productID uint, quantity int) error {
	prod, err := s.products.GetForUpdate(tx, productID)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return productUnavailable()
		}
		return err
	}
	if !prod.IsActive {
		return productUnavailable()
	}
	if quantity > prod.Stock {
		return insufficientStock(prod.Stock)
	}

	var existing Item
	err = key.Scope(tx).Where("product_id = ?", productID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var created bool
		if created, err = createLine(tx, key, productID, quantity); err != nil || created {
			return err
		}
		// A concurrent add inserted the line after the lookup; merge into it.
		err = key.Scope(tx).Where("product_id = ?", productID).First(&existing).Error
	}
	if err != nil {
		return fmt.Errorf("failed to look up cart item: %w", err)
	}

	newQuantity := existing.Quantity + quantity
	if newQuantity > prod.Stock {
		return insufficientStock(prod.Stock)
	}
	if err := tx.Model(&existing).Update("quantity", newQuantity).Error; err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// createLine inserts a new line inside a savepoint. It reports false, leaving tx usable,
// when the owner already holds a line for the product.
func createLine(tx *gorm.DB, key owner.Key, productID uint, quantity int) (bool, error) {
	userID, sessionID := key.Columns()
	item := Item{
		UserID:    userID,
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}
	err := tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&item).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add item to cart: %w", err)
	}
	return true, nil
}

// Update sets the quantity of a line owned by key and returns its new subtotal
func (s *Service) Update(ctx context.Context, key owner.Key, itemID uint, quantity int) (decimal.Decimal, error) {
	if err := requireOwner(key); err != nil {
		return decimal.Zero, err
	}
	if quantity < 1 {
		return decimal.Zero, invalidQuantity()
	}

	var subtotal decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item Item
		if err := key.Scope(tx).Where("id = ?", itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return itemNotFound()
			}
			return fmt.Errorf("failed to look up cart item: %w", err)
		}

		prod, err := s.products.GetForUpdate(tx, item.ProductID)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return productUnavailable()
			}
			return err
		}
		if quantity > prod.Stock {
			return insufficientStock(prod.Stock)
		}

		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		subtotal = Subtotal(quantity, prod)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	return subtotal, nil
}

// Remove deletes a line owned by key and returns the remaining line count
func (s *Service) Remove(ctx context.Context, key owner.Key, itemID uint) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}

	result := key.Scope(s.db.WithContext(ctx)).Where("id = ?", itemID).Delete(&Item{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, itemNotFound()
	}

	return s.Count(ctx, key)
}

// Clear deletes every line owned by key. Clearing an empty cart is not an error.
func (s *Service) Clear(ctx context.Context, key owner.Key) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}

	if err := key.Scope(s.db.WithContext(ctx)).Delete(&Item{}).Error; err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return 0, nil
}

// Count returns the number of lines owned by key
func (s *Service) Count(ctx context.Context, key owner.Key) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}

	var count int64
	if err := key.Scope(s.db.WithContext(ctx).Model(&Item{})).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// ItemExists reports whether a cart row with id exists for any owner
func (s *Service) ItemExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check cart item %d: %w", id, err)
	}
	return count > 0, nil
}

func requireOwner(key owner.Key) error {
	if key.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Visitor identity is required")
	}
	return nil
}

func invalidQuantity() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "The given data was invalid").
		WithDetails(map[string]string{"quantity": "must be at least 1"})
}

func itemNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")
}

func productUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeUnavailable, "Product not available or insufficient stock")
}

func insufficientStock(available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock").
		WithDetails(map[string]int{"available": available})
}
