// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// Models lists every table owned by the storefront, in dependency order
func Models() []interface{} {
	return []interface{}{
		&product.Product{},
		&cart.Item{},
		&wishlist.Item{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.log.WithField("model", fmt.Sprintf("%T", model)).Debug("Migrating model")
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the secondary indexes used by listing queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active_created ON products(is_active, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cart_created_at ON cart(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_wishlists_created_at ON wishlists(created_at)",
	}

	var errs error
	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to create index (%s): %w", indexSQL, err))
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Secondary indexes ensured")
	return errs
}

// SeedInitialData inserts sample products when the catalog is empty
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		m.log.Debug("Catalog already seeded")
		return nil
	}

	for _, prod := range sampleProducts() {
		if err := prod.Validate(); err != nil {
			return err
		}
		if err := m.db.Create(&prod).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", prod.Slug, err)
		}
		m.log.WithField("slug", prod.Slug).Info("Seeded product")
	}
	return nil
}

func sampleProducts() []product.Product {
	discount := func(amount string) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}

	return []product.Product{
		{
			Name:          "Wireless Noise-Cancelling Headphones",
			Slug:          "wireless-noise-cancelling-headphones",
			Description:   "Over-ear headphones with active noise cancellation and 30 hour battery life.",
			Price:         decimal.RequireFromString("199.99"),
			DiscountPrice: discount("159.99"),
			Category:      "electronics",
			Stock:         30,
			IsActive:      true,
		},
		{
			Name:        "Mechanical Keyboard",
			Slug:        "mechanical-keyboard",
			Description: "Tenkeyless keyboard with hot-swappable switches.",
			Price:       decimal.RequireFromString("89.00"),
			Category:    "electronics",
			Stock:       15,
			IsActive:    true,
		},
		{
			Name:          "Linen Shirt",
			Slug:          "linen-shirt",
			Description:   "Relaxed fit shirt in washed linen.",
			Price:         decimal.RequireFromString("49.50"),
			DiscountPrice: discount("39.50"),
			Category:      "fashion",
			Stock:         40,
			IsActive:      true,
		},
		{
			Name:        "Ceramic Pour-Over Set",
			Slug:        "ceramic-pour-over-set",
			Description: "Dripper, carafe and two cups.",
			Price:       decimal.RequireFromString("64.00"),
			Category:    "home",
			Stock:       5,
			IsActive:    true,
		},
		{
			Name:        "Trail Running Shoes",
			Slug:        "trail-running-shoes",
			Description: "Lightweight shoes with a grippy outsole.",
			Price:       decimal.RequireFromString("120.00"),
			Category:    "sports",
			Stock:       0,
			IsActive:    true,
		},
		{
			Name:        "Discontinued Desk Lamp",
			Slug:        "discontinued-desk-lamp",
			Description: "No longer sold.",
			Price:       decimal.RequireFromString("35.00"),
			Category:    "home",
			Stock:       12,
			IsActive:    false,
		},
	}
}
