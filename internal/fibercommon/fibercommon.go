// Package fibercommon holds the Fiber middleware and error handling
// shared by the web and monitoring apps.
package fibercommon

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qybridge/wecom-relay/internal/richerrors"
)

const loggerKey = "ctx_logger"

// ContextLoggerMiddleware attaches a request-scoped logger carrying a
// request id, and logs request completion with status and latency.
func ContextLoggerMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	requestID := uuid.NewString()
	logger := log.With().
		Str("requestId", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Logger()
	c.Locals(loggerKey, &logger)
	c.Set("X-Request-Id", requestID)

	err := c.Next()

	logger.Info().
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request completed")
	return err
}

// CtxLogger returns the request-scoped logger, or the package default
// when the middleware has not run.
func CtxLogger(c *fiber.Ctx) *zerolog.Logger {
	if logger, ok := c.Locals(loggerKey).(*zerolog.Logger); ok {
		return logger
	}
	return &log.Logger
}

// ErrorHandler maps handler errors to plain-text responses. A
// richerrors.Error controls the status code and the externally visible
// body; everything else becomes a generic 500 so internal detail never
// reaches the caller.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal error."

	var richErr richerrors.Error
	var fiberErr *fiber.Error
	if errors.As(err, &richErr) {
		if richErr.Code != 0 {
			code = richErr.Code
		}
		if richErr.ExternalMsg != "" {
			msg = richErr.ExternalMsg
		}
	} else if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		msg = fiberErr.Message
	}

	logger := CtxLogger(c)
	if code >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Int("status", code).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", code).Msg("request rejected")
	}
	return c.Status(code).SendString(msg)
}
