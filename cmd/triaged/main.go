// Package main provides the entry point for the triage service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-triage/internal/di"
	"github.com/listenupapp/listenup-triage/internal/di/providers"
	"github.com/listenupapp/listenup-triage/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap triage service: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	// Push whatever sync work is still outstanding before the container
	// tears the syncer down.
	if syncHandle, err := do.Invoke[*providers.SyncerHandle](injector); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := syncHandle.FlushAll(ctx); err != nil {
			log.Warn("Final sync flush incomplete", "error", err)
		}
		cancel()
	}

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Database uses a wrapper type, so close it explicitly
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing database...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close database", "error", err)
		} else {
			log.Info("Database closed successfully")
		}
	}

	log.Info("See you space cowboy...")
}
