// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultNewArrivals = 5
	DefaultBestSellers = 6
)

// Service provides read access to the product catalog
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get loads a product by id regardless of its active flag
func (s *Service) Get(ctx context.Context, id uint) (*Product, error) {
	return s.find(s.db.WithContext(ctx), id)
}

// GetForUpdate loads a product inside tx and holds a row lock until tx ends.
// Mutations of one product's cart rows are serialised through this lock.
func (s *Service) GetForUpdate(tx *gorm.DB, id uint) (*Product, error) {
	return s.find(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (s *Service) find(db *gorm.DB, id uint) (*Product, error) {
	var prod Product
	if err := db.Where("id = ?", id).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Product not found")
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &prod, nil
}

// Exists reports whether a product row with id exists
func (s *Service) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product %d: %w", id, err)
	}
	return count > 0, nil
}

// FindByIDs loads products keyed by id
func (s *Service) FindByIDs(ctx context.Context, ids []uint) (map[uint]*Product, error) {
	result := make(map[uint]*Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// ListActive returns all active products, newest first
func (s *Service) ListActive(ctx context.Context) ([]Product, error) {
	return s.listActive(ctx, "created_at DESC, id DESC", 0)
}

// NewArrivals returns the newest active products
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultNewArrivals
	}
	return s.listActive(ctx, "created_at DESC, id DESC", limit)
}

// BestSellers returns a random selection of active products.
// There is no sales data yet, so the selection is random.
func (s *Service) BestSellers(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultBestSellers
	}
	return s.listActive(ctx, "RANDOM()", limit)
}

func (s *Service) listActive(ctx context.Context, order string, limit int) ([]Product, error) {
	query := s.db.WithContext(ctx).Where("is_active = ?", true).Order(order)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
