// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GetAndSetDefaultLogger builds the service logger and installs it as
// both the package-level and the default context logger.
func GetAndSetDefaultLogger(serviceName string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", serviceName).
		Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}
