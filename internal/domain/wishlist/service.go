package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront/internal/domain/owner"
	"github.com/your-org/storefront/internal/domain/product"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
)

// Service handles wishlist business logic
type Service struct {
	db       *gorm.DB
	products *product.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, products *product.Service) *Service {
	return &Service{
		db:       db,
		products: products,
	}
}

// List retrieves the wishlist of key, oldest entry first
func (s *Service) List(ctx context.Context, key owner.Key) (*Wishlist, error) {
	if err := requireOwner(key); err != nil {
		return nil, err
	}

	var items []Item
	if err := key.Scope(s.db.WithContext(ctx)).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve wishlist items: %w", err)
	}

	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{Item: item, Product: products[item.ProductID]})
	}

	return &Wishlist{Entries: entries, Count: int64(len(items))}, nil
}

// Add puts a product on the wishlist and returns the new count
func (s *Service) Add(ctx context.Context, key owner.Key, productID uint) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return 0, err
	}

	in, err := s.contains(s.db.WithContext(ctx), key, productID)
	if err != nil {
		return 0, err
	}
	if in {
		return 0, alreadyExists()
	}

	if err := s.create(s.db.WithContext(ctx), key, productID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, alreadyExists()
		}
		return 0, err
	}

	return s.Count(ctx, key)
}

// Remove takes a product off the wishlist and returns the new count
func (s *Service) Remove(ctx context.Context, key owner.Key, productID uint) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}

	result := key.Scope(s.db.WithContext(ctx)).Where("product_id = ?", productID).Delete(&Item{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to remove wishlist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in wishlist")
	}

	return s.Count(ctx, key)
}

// Toggle flips membership of a product. It reports the resulting membership and count.
func (s *Service) Toggle(ctx context.Context, key owner.Key, productID uint) (bool, int64, error) {
	if err := requireOwner(key); err != nil {
		return false, 0, err
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return false, 0, err
	}

	var inWishlist bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := key.Scope(tx).Where("product_id = ?", productID).Delete(&Item{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove wishlist item: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			inWishlist = false
			return nil
		}

		inWishlist = true
		err := tx.Transaction(func(sp *gorm.DB) error {
			return s.create(sp, key, productID)
		})
		// A concurrent toggle inserted the same entry first; membership is already true.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	})
	if err != nil {
		return false, 0, err
	}

	count, err := s.Count(ctx, key)
	if err != nil {
		return false, 0, err
	}
	return inWishlist, count, nil
}

// Check reports whether a product is on the wishlist of key
func (s *Service) Check(ctx context.Context, key owner.Key, productID uint) (bool, error) {
	if err := requireOwner(key); err != nil {
		return false, err
	}
	return s.contains(s.db.WithContext(ctx), key, productID)
}

// Count returns the number of entries owned by key
func (s *Service) Count(ctx context.Context, key owner.Key) (int64, error) {
	if err := requireOwner(key); err != nil {
		return 0, err
	}

	var count int64
	if err := key.Scope(s.db.WithContext(ctx).Model(&Item{})).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count wishlist items: %w", err)
	}
	return count, nil
}

func (s *Service) contains(db *gorm.DB, key owner.Key, productID uint) (bool, error) {
	var count int64
	if err := key.Scope(db.Model(&Item{})).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

func (s *Service) create(db *gorm.DB, key owner.Key, productID uint) error {
	userID, sessionID := key.Columns()
	item := Item{
		UserID:    userID,
		SessionID: sessionID,
		ProductID: productID,
	}
	if err := db.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to add item to wishlist: %w", err)
	}
	return nil
}

// requireProduct enforces that productID references a catalog row. Active flag and stock are not checked.
func (s *Service) requireProduct(ctx context.Context, productID uint) error {
	exists, err := s.products.Exists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeValidation, "The given data was invalid").
			WithDetails(map[string]string{"product_id": "The selected product id is invalid."})
	}
	return nil
}

func requireOwner(key owner.Key) error {
	if key.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Visitor identity is required")
	}
	return nil
}

func alreadyExists() error {
	return pkgerrors.New(pkgerrors.CodeAlreadyExists, "Product already in wishlist")
}
