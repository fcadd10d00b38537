package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/ocula-id/ocula/internal/api/docs"
	"github.com/ocula-id/ocula/internal/api/handler"
	"github.com/ocula-id/ocula/internal/api/middleware"
	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/ws"
)

type Dependencies struct {
	Perception handler.PerceptionService
	Faces      *facedetect.Detector
	Verifier   ws.Verifier
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Ocula Capture API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group
	v1 := r.app.Group("/v1")

	if r.deps != nil {
		perceptionHandler := handler.NewPerceptionHandler(r.deps.Perception, r.logger)

		v1.Post("/quality", perceptionHandler.ValidateQuality)
		v1.Post("/selfie/validate", perceptionHandler.ValidateSelfie)
		v1.Post("/document/scan", perceptionHandler.ScanDocument)
		v1.Post("/mrz", perceptionHandler.ReadMRZ)

		if r.deps.Faces != nil {
			v1.Use("/liveness/stream", ws.UpgradeMiddleware())
			v1.Get("/liveness/stream", ws.Handler(r.deps.Faces, r.deps.Verifier, r.logger))
		}
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
