// Package monserver provides the monitoring HTTP app served on the
// internal port: Prometheus metrics, liveness probes and optional pprof.
package monserver

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewMonitoringServer creates the monitoring fiber app.
func NewMonitoringServer(logger *zerolog.Logger, enablePprof bool) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	if enablePprof {
		app.Use(pprof.New())
		logger.Info().Msg("pprof enabled on monitoring server")
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/readyz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}
