package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"backend-zodiack/internal/auth"
	"backend-zodiack/internal/call"
	"backend-zodiack/internal/chat"
	"backend-zodiack/internal/checkpoint"
	"backend-zodiack/internal/config"
	"backend-zodiack/internal/location"
	"backend-zodiack/internal/notify"
	"backend-zodiack/internal/scheduler"
	"backend-zodiack/internal/session"
	"backend-zodiack/internal/storage"
	"backend-zodiack/internal/stream"
	"backend-zodiack/internal/trip"
	"backend-zodiack/internal/user"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Registry  *session.Registry
	Hub       *stream.Hub
	Relay     *call.Relay
	Locations *location.Service
	Scheduler *scheduler.Service
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, push notify.PushPublisher) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	registry := session.NewRegistry()
	hub := stream.NewHub(redisClient)
	relay := call.NewRelay(registry)

	users := user.NewService(db)
	authSvc := auth.NewService(cfg.JWTSecret, db)
	locations := location.NewService(db, registry, hub)
	notifications := notify.NewService(db, registry, users, push)
	trips := trip.NewService(db)
	checkpoints := checkpoint.NewService(db)
	messages := chat.NewService(db, registry)
	uploads := storage.NewService(db)
	sched := scheduler.NewService(db, locations, cfg.StatusSweepInterval, cfg.DailySweepInterval)

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        db,
		Redis:     redisClient,
		Registry:  registry,
		Hub:       hub,
		Relay:     relay,
		Locations: locations,
		Scheduler: sched,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(cfg.JWTSecret)

	auth.RegisterRoutes(app.Group("/auth"), authSvc)
	user.RegisterRoutes(app.Group("/users"), users, jwtMiddleware)
	trip.RegisterRoutes(app.Group("/trips"), trips, jwtMiddleware)
	checkpoint.RegisterRoutes(app.Group("/checkpoints"), checkpoints, jwtMiddleware)
	location.RegisterRoutes(app.Group("/locations"), locations, cfg.TrackingWindow, jwtMiddleware)
	notify.RegisterRoutes(app.Group("/notifications"), notifications, jwtMiddleware)
	chat.RegisterRoutes(app.Group("/chat"), messages, jwtMiddleware)
	storage.RegisterRoutes(app.Group("/storage"), uploads, jwtMiddleware)

	gateway := stream.NewGateway(registry, relay, locations, hub, func(ctx context.Context, token string) (string, session.Info, error) {
		userID, err := authSvc.ValidateAccessToken(token)
		if err != nil {
			return "", session.Info{}, err
		}
		u, err := users.FindByID(ctx, userID)
		if err != nil {
			return "", session.Info{}, err
		}
		return userID, session.Info{Name: u.FullName, Email: u.Email, Role: u.Role}, nil
	})
	gateway.RegisterRoutes(app.Group("/stream"))

	return s
}
