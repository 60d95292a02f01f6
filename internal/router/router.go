package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/olympic-ticketing/internal/config"
	"github.com/iliyamo/olympic-ticketing/internal/handler"
	"github.com/iliyamo/olympic-ticketing/internal/middleware"
	"github.com/iliyamo/olympic-ticketing/internal/model"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Ticket  *handler.TicketHandler
}

// Deps are the shared collaborators of the route middleware.  Redis may be
// nil, in which case caching is off and rate limiting runs in memory.
type Deps struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// Register mounts all routes on e.
func Register(e *echo.Echo, h Handlers, d Deps) {
	// Map the GET request at path "/healthz" to the Health handler.
	e.GET("/healthz", h.Health.Health)

	RegisterCatalog(e, h.Catalog, d)
	RegisterAuth(e, h.Auth, d)
	RegisterCustomer(e, h.Cart, h.Ticket, d)
}

// RegisterCatalog registers the public browse endpoints.  Only the sports
// list and the offers are cached; the sport detail carries live seat
// counts.
func RegisterCatalog(e *echo.Echo, c *handler.CatalogHandler, d Deps) {
	cache := middleware.NewResponseCache(d.Cache, d.Redis)
	e.GET("/api/sports", c.ListSports, cache)
	e.GET("/api/offers", c.ListOffers, cache)
	e.GET("/api/sports/:slug", c.GetSport)
}

// RegisterAuth registers authentication routes.  Register, login, refresh
// and logout need no session and are rate limited; /me needs a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	g := e.Group("/api/auth")
	limited := g.Group("", middleware.NewTokenBucket(d.RateLimit, d.Redis))
	limited.POST("/register", a.Register)
	limited.POST("/login", a.Login)
	limited.POST("/refresh", a.Refresh)
	limited.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.JWTAuth(d.JWTSecret))
}

// RegisterCustomer registers the cart and ticket endpoints.  Routes that
// name a user in the path only serve that user.
func RegisterCustomer(e *echo.Echo, cart *handler.CartHandler, tickets *handler.TicketHandler, d Deps) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleClient, model.RoleAdmin),
	}
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	panier := e.Group("/api/panier/user/:user_id", append(auth, middleware.SameUser("user_id"))...)
	panier.GET("", cart.List)
	panier.POST("", cart.Add, limit)
	panier.DELETE("/item/:item_id", cart.Remove)
	panier.POST("/valider", cart.Validate, limit)

	t := e.Group("/api/tickets", auth...)
	t.GET("/user/:user_id", tickets.List, middleware.SameUser("user_id"))
	t.POST("/acheter/:user_id", cart.Validate, middleware.SameUser("user_id"), limit)
	// ownership is checked against the ticket row, admins may fetch any
	t.GET("/:id/download-pdf", tickets.Download)
}
