package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"marathon_backend/internals/configs"
	"marathon_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the global chain in order: recover, request id, access log, metrics, cors, compression.
func SetupMiddlewares(app *fiber.App, cfg configs.AppConfig, log *zap.Logger) {
	app.Use(RecoveryMiddleware(log))
	app.Use(RequestIDMiddleware())
	app.Use(logger.LoggerMiddleware(log))
	app.Use(MetricsMiddleware())
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(etag.New())
	app.Use(GlobalRateLimiter())
}
