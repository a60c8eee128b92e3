// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/wishlist"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"gorm.io/gorm"
)

// SetupProductRoutes sets up catalog routes
func SetupProductRoutes(rg *gin.RouterGroup, productService *product.Service) {
	productHandler := handlers.NewProductHandler(productService)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/new-arrivals", productHandler.GetNewArrivals)
		products.GET("/best-sellers", productHandler.GetBestSellers)
		products.GET("/:id", productHandler.GetProduct)
	}
}

// SetupCartRoutes sets up cart routes, scoped to the resolved visitor
func SetupCartRoutes(rg *gin.RouterGroup, cartService *cart.Service, productService *product.Service, cfg *config.Config, m *metrics.Metrics) {
	cartHandler := handlers.NewCartHandler(cartService, productService, m)

	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.OptionalAuthMiddleware(cfg), middleware.Identity(cfg))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.GET("/count", cartHandler.GetCartCount)
		cartGroup.POST("/add", cartHandler.AddToCart)
		cartGroup.POST("/update", cartHandler.UpdateCart)
		cartGroup.POST("/remove", cartHandler.RemoveFromCart)
		cartGroup.POST("/clear", cartHandler.ClearCart)
	}
}

// SetupWishlistRoutes sets up wishlist routes, scoped to the resolved visitor
func SetupWishlistRoutes(rg *gin.RouterGroup, wishlistService *wishlist.Service, productService *product.Service, cfg *config.Config, m *metrics.Metrics) {
	wishlistHandler := handlers.NewWishlistHandler(wishlistService, productService, m)

	wishlistGroup := rg.Group("/wishlist")
	wishlistGroup.Use(middleware.OptionalAuthMiddleware(cfg), middleware.Identity(cfg))
	{
		wishlistGroup.GET("", wishlistHandler.GetWishlist)
		wishlistGroup.GET("/count", wishlistHandler.GetWishlistCount)
		wishlistGroup.POST("/add", wishlistHandler.AddToWishlist)
		wishlistGroup.POST("/remove", wishlistHandler.RemoveFromWishlist)
		wishlistGroup.POST("/toggle", wishlistHandler.ToggleWishlist)
		wishlistGroup.POST("/check", wishlistHandler.CheckWishlist)
	}
}

// SetupRoutes wires every storefront route under rg
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config, m *metrics.Metrics) {
	productService := product.NewService(db)

	SetupProductRoutes(rg, productService)
	SetupCartRoutes(rg, cart.NewService(db, productService), productService, cfg, m)
	SetupWishlistRoutes(rg, wishlist.NewService(db, productService), productService, cfg, m)
}
