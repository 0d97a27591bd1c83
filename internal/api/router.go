package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/config"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/ws"
)

// multipartHeadroom is allowed on top of the image ceiling for form framing
const multipartHeadroom = 1 << 20

type Dependencies struct {
	Service  handler.EmotionService
	Recorder *metrics.Recorder
	Config   *config.Config
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	wsHub       *ws.Hub
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      deps.Config.ServiceName,
		BodyLimit:    deps.Config.MaxImageBytes() + multipartHeadroom,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	cfg := r.deps.Config

	// Global middlewares
	r.app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return uuid.NewString()
		},
	}))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger(cfg.Addr())
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(cfg.ServiceName, r.deps.Service)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	metricsHandler := handler.NewMetricsHandler(r.deps.Recorder)
	r.app.Get("/metrics", metricsHandler.Metrics)

	// Rate limiting (per client IP), disabled when RATE_LIMIT_MAX is 0
	if cfg.RateLimitMax > 0 {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: time.Minute,
		})
	}

	infer := r.app.Group("/infer")
	stream := r.app.Group("/stream")
	if r.rateLimiter != nil {
		infer.Use(r.rateLimiter.Handler())
		stream.Use(r.rateLimiter.Handler())
	}

	emotionHandler := handler.NewEmotionHandler(r.deps.Service, int64(cfg.MaxImageBytes()), r.deps.Recorder, r.logger)
	infer.Post("/mood", emotionHandler.InferMood)

	// WebSocket frame stream
	r.wsHub = ws.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	stream.Get("/mood", ws.UpgradeMiddleware(), ws.Handler(r.wsHub, r.deps.Service, cfg.MaxImageBytes(), r.logger))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Close open stream sessions
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
