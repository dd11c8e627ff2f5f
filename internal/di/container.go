// Package di provides dependency injection configuration for the triage
// service.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/config"
	"github.com/listenupapp/listenup-triage/internal/di/providers"
	"github.com/listenupapp/listenup-triage/internal/logger"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Local state
	do.Provide(injector, providers.ProvideStore)

	// Upstream server clients
	do.Provide(injector, providers.ProvideCatalogClient)
	do.Provide(injector, providers.ProvideSnapshot)
	do.Provide(injector, providers.ProvideRemoteClient)
	do.Provide(injector, providers.ProvideLaterQueue)
	do.Provide(injector, providers.ProvideCoverResolver)

	// Triage core
	do.Provide(injector, providers.ProvideSyncer)
	do.Provide(injector, providers.ProvideEngine)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap invokes the service chain in dependency order so startup
// failures surface before the process settles into its signal wait.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return fmt.Errorf("open decision store: %w", err)
	}
	if _, err := do.Invoke[*catalog.Snapshot](injector); err != nil {
		return fmt.Errorf("load catalog snapshot: %w", err)
	}
	if _, err := do.Invoke[*triage.Engine](injector); err != nil {
		return fmt.Errorf("build triage engine: %w", err)
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}
	return nil
}
