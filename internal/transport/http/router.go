package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/handlers"
	authmw "github.com/mccullochjewellers/storefront/internal/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	JWTSecret       []byte
	UserHandler     *handlers.UserHandler
	OAuthHandler    *handlers.OAuthHandler
	ProductHandler  *handlers.ProductHandler
	WatchHandler    *handlers.WatchHandler
	FavoriteHandler *handlers.FavoriteHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")
	requireAuth := authmw.RequireAuth(d.JWTSecret)

	users := v1.Group("/users")
	users.POST("/signup", d.UserHandler.Signup)
	users.POST("/login", d.UserHandler.Login)
	users.POST("/refresh", d.UserHandler.Refresh)
	users.POST("/logout", d.UserHandler.Logout, requireAuth)
	users.GET("/verify-email/:token", d.UserHandler.VerifyEmail)
	users.POST("/resend-verification", d.UserHandler.ResendVerification, requireAuth)
	users.GET("/profile", d.UserHandler.GetProfile, requireAuth)
	users.PUT("/profile", d.UserHandler.UpdateProfile, requireAuth)
	users.POST("/change-password", d.UserHandler.ChangePassword, requireAuth)

	oauth := v1.Group("/auth")
	oauth.GET("/google", d.OAuthHandler.GoogleLogin)
	oauth.GET("/google/callback", d.OAuthHandler.GoogleCallback)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/categories", d.ProductHandler.GetCategories)
	products.GET("/category/:categorySlug", d.ProductHandler.GetProductsByCategory)
	products.GET("/:slug", d.ProductHandler.GetProductBySlug)

	watches := v1.Group("/watches")
	watches.GET("/brands", d.WatchHandler.GetBrands)
	watches.GET("/brands/:brandID/collections", d.WatchHandler.GetCollectionsByBrand)
	watches.GET("/featured-collections", d.WatchHandler.GetFeaturedCollections)
	watches.GET("", d.WatchHandler.GetWatches)
	watches.GET("/:slug", d.WatchHandler.GetWatchBySlug)

	favorites := v1.Group("/favorites", requireAuth)
	favorites.GET("", d.FavoriteHandler.GetFavorites)
	favorites.POST("", d.FavoriteHandler.AddFavorite)
	favorites.DELETE("/:productID", d.FavoriteHandler.RemoveFavorite)
	favorites.GET("/check/:productID", d.FavoriteHandler.CheckFavorite)

	v1.GET("/search", d.SearchHandler.Search)

	admin := v1.Group("/admin", requireAuth, authmw.AdminOnly(d.DB))
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
	admin.POST("/watches/brands", d.WatchHandler.CreateBrand)
	admin.PUT("/watches/brands/:id", d.WatchHandler.UpdateBrand)
	admin.DELETE("/watches/brands/:id", d.WatchHandler.DeleteBrand)
	admin.POST("/watches/collections", d.WatchHandler.CreateCollection)
	admin.POST("/watches", d.WatchHandler.CreateWatch)
	admin.PUT("/watches/:id", d.WatchHandler.UpdateWatch)
	admin.DELETE("/watches/:id", d.WatchHandler.DeleteWatch)
}
