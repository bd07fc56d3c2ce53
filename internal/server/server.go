package server

import (
	"context"

	"backend-safetrail/internal/alert"
	"backend-safetrail/internal/arrival"
	"backend-safetrail/internal/auth"
	"backend-safetrail/internal/config"
	"backend-safetrail/internal/contact"
	"backend-safetrail/internal/geo"
	"backend-safetrail/internal/location"
	"backend-safetrail/internal/notify"
	"backend-safetrail/internal/route"
	"backend-safetrail/internal/session"
	"backend-safetrail/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Provider *location.Provider
	Sessions *session.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   stream.NewHub(redisClient),
		Provider: location.NewProvider(),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	notifier := notify.NewService(s.Redis)
	detector := arrival.NewDetector(notifier)
	registry := route.NewRegistry(s.Provider)
	contacts := contact.NewService(s.DB)
	sessions := session.NewService(s.DB, s.Provider, detector, s.Stream, s.Cfg.ShareBaseURL)
	alerts := alert.NewDispatcher(s.DB, contacts, notifier, sessions)
	s.Sessions = sessions

	// every delivered fix reaches both consumers; each ignores it while
	// its own feature is inactive
	s.Provider.Subscribe(func(userID string, fix geo.Fix) {
		sessions.OnFix(context.Background(), userID, fix)
	})
	s.Provider.Subscribe(func(userID string, fix geo.Fix) {
		registry.HandleFix(userID, fix)
	})

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB), jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/location"), s.Provider, jwtMiddleware)
	session.RegisterRoutes(s.App.Group("/sessions"), sessions, jwtMiddleware)
	contact.RegisterRoutes(s.App.Group("/contacts"), contacts, jwtMiddleware)
	alert.RegisterRoutes(s.App.Group("/alerts"), alerts, jwtMiddleware)
	route.RegisterRoutes(s.App.Group("/route"), registry, jwtMiddleware)
	arrival.RegisterRoutes(s.App.Group("/destination"), detector, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, func(token string) bool {
		return sessions.ValidateShareToken(context.Background(), token)
	})
}
