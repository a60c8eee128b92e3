// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB opens an isolated in-memory SQLite database with the storefront schema
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the shared-cache database alive and avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&product.Product{}, &cart.Item{}, &wishlist.Item{}))
	return db
}

// ProductOption customises a seeded product
type ProductOption func(*product.Product)

// WithDiscount sets the discount price
func WithDiscount(amount string) ProductOption {
	return func(p *product.Product) {
		p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
}

// WithStock sets the available stock
func WithStock(stock int) ProductOption {
	return func(p *product.Product) { p.Stock = stock }
}

// Inactive marks the product as inactive
func Inactive() ProductOption {
	return func(p *product.Product) { p.IsActive = false }
}

// CreateProduct inserts an active product priced at price with stock 10
func CreateProduct(t *testing.T, db *gorm.DB, name, price string, opts ...ProductOption) *product.Product {
	t.Helper()

	prod := &product.Product{
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Price:    decimal.RequireFromString(price),
		Stock:    10,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(prod)
	}
	require.NoError(t, prod.Validate())
	require.NoError(t, db.Create(prod).Error)
	return prod
}

// Stage selects the statement after which Interleave runs
type Stage int

const (
	AfterQuery Stage = iota
	AfterDelete
)

// Interleave runs sql once, on the same connection, right after the first statement
// against table at stage. It stands in for a concurrent writer that commits between a
// lookup and the insert that follows it. The returned flag reports whether it ran.
func Interleave(t *testing.T, db *gorm.DB, stage Stage, table, sql string, args ...any) *atomic.Bool {
	t.Helper()

	var fired atomic.Bool
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return
		}
		if !fired.CompareAndSwap(false, true) {
			return
		}
		if _, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, sql, args...); err != nil {
			_ = tx.AddError(err)
		}
	}

	name := "testutil:interleave"
	var err error
	switch stage {
	case AfterQuery:
		err = db.Callback().Query().After("gorm:query").Register(name, hook)
	case AfterDelete:
		err = db.Callback().Delete().After("gorm:delete").Register(name, hook)
	}
	require.NoError(t, err)
	return &fired
}
