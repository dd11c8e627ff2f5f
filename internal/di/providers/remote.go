package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/config"
	"github.com/listenupapp/listenup-triage/internal/covers"
	"github.com/listenupapp/listenup-triage/internal/logger"
	"github.com/listenupapp/listenup-triage/internal/remote"
)

// CatalogClientHandle wraps the catalog loader with shutdown.
type CatalogClientHandle struct {
	*catalog.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalogClient provides the catalog loader for the upstream server.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := catalog.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, log.Logger)
	return &CatalogClientHandle{Client: client}, nil
}

// ProvideSnapshot loads the catalog snapshot at startup. One snapshot serves
// the whole process lifetime.
func ProvideSnapshot(i do.Injector) (*catalog.Snapshot, error) {
	clientHandle := do.MustInvoke[*CatalogClientHandle](i)

	ctx, cancel := context.WithTimeout(context.Background(), snapshotLoadTimeout)
	defer cancel()
	return clientHandle.LoadSnapshot(ctx)
}

// RemoteClientHandle wraps the progress client with shutdown.
type RemoteClientHandle struct {
	*remote.Client
}

// Shutdown implements do.Shutdownable.
func (h *RemoteClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideRemoteClient provides the finished-state push client.
func ProvideRemoteClient(i do.Injector) (*RemoteClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, log.Logger)
	return &RemoteClientHandle{Client: client}, nil
}

// LaterQueueHandle wraps the listen-later client with shutdown.
type LaterQueueHandle struct {
	*remote.LaterQueue
}

// Shutdown implements do.Shutdownable.
func (h *LaterQueueHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideLaterQueue provides the listen-later collection client.
func ProvideLaterQueue(i do.Injector) (*LaterQueueHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	q := remote.NewLaterQueue(cfg.Remote.BaseURL, cfg.Remote.Token, log.Logger)
	return &LaterQueueHandle{LaterQueue: q}, nil
}

// CoverResolverHandle wraps the cover resolver with shutdown.
type CoverResolverHandle struct {
	*covers.Resolver
}

// Shutdown implements do.Shutdownable.
func (h *CoverResolverHandle) Shutdown() error {
	h.Resolver.Close()
	return nil
}

// ProvideCoverResolver provides the memoized cover URL resolver.
func ProvideCoverResolver(i do.Injector) (*CoverResolverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &CoverResolverHandle{
		Resolver: covers.NewResolver(cfg.Remote.BaseURL, cfg.Remote.Token, log.Logger),
	}, nil
}
