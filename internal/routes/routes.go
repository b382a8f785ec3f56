package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/questlog/internal/config"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/questlog/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	store repository.Store,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	questHandler *handlers.QuestHandler,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth: stricter 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// JWT middleware is attached per route so it never runs on public ones.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Catalog (public)
	api.Get("/users", userHandler.ListUsers)
	api.Get("/games", questHandler.ListGames)
	api.Get("/games/:id/quests", questHandler.ListGameQuests)
	api.Get("/quests/search", questHandler.SearchQuests)

	me := api.Group("/me", middleware.JWTProtected(cfg))
	me.Get("/", userHandler.Me)
	me.Put("/username", userHandler.ChangeUsername)
	me.Put("/email", userHandler.ChangeEmail)
	me.Put("/password", userHandler.ChangePassword)
	me.Get("/quests/available", questHandler.ListAvailable)
	me.Get("/quests/completed", questHandler.ListCompleted)
	me.Post("/quests/:id/complete", questHandler.Complete)

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(store, cfg))
	admin.Post("/catalog/reload", adminHandler.ReloadCatalog)
}
