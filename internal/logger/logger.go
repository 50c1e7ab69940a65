package logger

import (
	"github.com/hashicorp/go-hclog"

	"github.com/filmatlas/filmatlas/internal/config"
)

// New builds the root logger from the logging configuration. Subsystems
// derive their own named loggers from it.
func New(cfg config.LoggingConfig) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "filmatlas",
		Level:      hclog.LevelFromString(cfg.Level),
		JSONFormat: cfg.JSON,
	})
}
