package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type Deps struct {
	DB   *gorm.DB
	Auth *auth.Middleware

	AuthHandler         *AuthHTTP
	CatalogHandler      *CatalogHTTP
	OrderHandler        *OrderHTTP
	AddressHandler      *AddressHTTP
	CartHandler         *CartHTTP
	NotificationHandler *NotificationHTTP
	ReviewHandler       *ReviewHTTP
}

// Register installs the validator, error handler and every route on e.
func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx, d.DB); err != nil {
			logging.FromContext(ctx).Warn("ready_error", "status", http.StatusServiceUnavailable, "reason", "db ping", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	authed := d.Auth.RequireAuth
	sellers := d.Auth.RequireRole("seller", "admin")

	a := api.Group("/auth")
	a.POST("/register", d.AuthHandler.Register)
	a.POST("/login", d.AuthHandler.Login)
	a.POST("/refresh", d.AuthHandler.Refresh)
	a.POST("/logout", d.AuthHandler.Logout, authed)
	a.POST("/become-seller", d.AuthHandler.BecomeSeller, authed)
	a.GET("/me", d.AuthHandler.Me, authed)

	api.GET("/categories", d.CatalogHandler.ListCategories)
	api.POST("/categories", d.CatalogHandler.CreateCategory, d.Auth.RequireAdmin)
	api.PUT("/categories/:id", d.CatalogHandler.UpdateCategory, d.Auth.RequireAdmin)
	api.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory, d.Auth.RequireAdmin)
	api.GET("/categories/:id/products", d.CatalogHandler.ListCategoryProducts)

	api.GET("/stores", d.CatalogHandler.ListStores)
	api.GET("/stores/:id", d.CatalogHandler.GetStore)
	api.POST("/stores", d.CatalogHandler.CreateStore, sellers)
	api.PATCH("/stores/:id", d.CatalogHandler.PatchStore, sellers)
	api.GET("/stores/:id/orders", d.OrderHandler.ListStoreOrders, sellers)

	api.GET("/products", d.CatalogHandler.ListProducts)
	api.GET("/products/search", d.CatalogHandler.SearchProducts)
	api.GET("/products/:id", d.CatalogHandler.GetProduct)
	api.POST("/products", d.CatalogHandler.CreateProduct, sellers)
	api.PATCH("/products/:id", d.CatalogHandler.PatchProduct, sellers)
	api.DELETE("/products/:id", d.CatalogHandler.DeleteProduct, sellers)
	api.GET("/products/:id/reviews", d.ReviewHandler.List)
	api.POST("/products/:id/reviews", d.ReviewHandler.Create, authed)

	api.GET("/addresses", d.AddressHandler.List, authed)
	api.POST("/addresses", d.AddressHandler.Create, authed)
	api.PATCH("/addresses/:id", d.AddressHandler.Patch, authed)
	api.DELETE("/addresses/:id", d.AddressHandler.Delete, authed)

	api.GET("/cart", d.CartHandler.Get, authed)
	api.POST("/cart", d.CartHandler.Add, authed)
	api.DELETE("/cart", d.CartHandler.Clear, authed)
	api.PUT("/cart/items/:productId", d.CartHandler.SetQuantity, authed)
	api.DELETE("/cart/items/:productId", d.CartHandler.RemoveOne, authed)

	api.POST("/orders", d.OrderHandler.PlaceOrder, authed)
	api.GET("/orders", d.OrderHandler.ListMyOrders, authed)
	api.GET("/orders/:id", d.OrderHandler.GetOrder, authed)
	api.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus, sellers)

	api.GET("/notifications", d.NotificationHandler.List, authed)
	api.PUT("/notifications/:id/read", d.NotificationHandler.MarkRead, authed)
}
