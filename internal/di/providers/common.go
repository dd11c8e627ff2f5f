package providers

import (
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-triage/internal/config"
	"github.com/listenupapp/listenup-triage/internal/logger"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// snapshotLoadTimeout bounds the startup catalog fetch.
	snapshotLoadTimeout = 2 * time.Minute
)

// ProvideConfig loads configuration from flags, environment, and .env file.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the application logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return logger.New(logger.Config{
		Writer:      os.Stdout,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}), nil
}
