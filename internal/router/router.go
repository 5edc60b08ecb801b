// Package router wires handlers, middleware and route groups onto the
// Echo instance. Three audiences exist: public (catalog reads), any
// authenticated user (my-list, ratings, account) and admin (catalog
// writes, role changes).
package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehm/watchlog/internal/handler"
	"github.com/kavehm/watchlog/internal/middleware"
	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/utils"
)

// Deps bundles everything the routes need.
type Deps struct {
	TokenCfg        utils.TokenConfig
	Redis           *redis.Client
	RateLimitPerMin int
	CacheTTL        time.Duration

	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Titles  *handler.TitleHandler
	Genres  *handler.GenreHandler
	Lists   *handler.ListHandler
	Ratings *handler.RatingHandler
}

// Register mounts all routes.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated auth operations, rate limited per client.
	authGroup := e.Group("/v1/auth", middleware.RateLimit(d.Redis, d.RateLimitPerMin))
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh", d.Auth.Refresh)
	authGroup.POST("/logout", d.Auth.Logout)

	// Public catalog reads, cached.
	public := e.Group("/v1", middleware.CacheGET(d.Redis, d.CacheTTL))
	public.GET("/titles", d.Titles.List)
	public.GET("/titles/:id", d.Titles.Get)
	public.GET("/titles/:id/ratings", d.Ratings.ListForTitle)
	public.GET("/genres", d.Genres.List)
	public.GET("/genres/:id", d.Genres.Get)

	// Anything below requires a valid access token.
	auth := e.Group("/v1", middleware.JWTAuth(d.TokenCfg))

	auth.GET("/me", d.Users.Me)
	auth.PUT("/me", d.Users.UpdateProfile)
	auth.PUT("/me/password", d.Users.ChangePassword)
	auth.POST("/logout-all", d.Auth.LogoutAll)
	auth.DELETE("/users/:id", d.Users.Delete)

	auth.POST("/my-list", d.Lists.Add)
	auth.GET("/my-list", d.Lists.List)
	auth.PATCH("/my-list/:id", d.Lists.UpdateStatus)
	auth.DELETE("/my-list/:id", d.Lists.Remove)

	auth.POST("/ratings", d.Ratings.Create)
	auth.PATCH("/ratings/:id", d.Ratings.Update)
	auth.DELETE("/ratings/:id", d.Ratings.Delete)

	// Catalog writes and role management are admin-only.
	admin := auth.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.POST("/titles", d.Titles.Create)
	admin.PUT("/titles/:id", d.Titles.Update)
	admin.DELETE("/titles/:id", d.Titles.Delete)
	admin.POST("/genres", d.Genres.Create)
	admin.PUT("/genres/:id", d.Genres.Update)
	admin.DELETE("/genres/:id", d.Genres.Delete)
	admin.PUT("/users/:id/role", d.Users.ChangeRole)
}
