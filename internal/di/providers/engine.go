package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/config"
	"github.com/listenupapp/listenup-triage/internal/logger"
	"github.com/listenupapp/listenup-triage/internal/syncer"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

// syncJobTimeout bounds a single finished-state push.
const syncJobTimeout = 30 * time.Second

// stateLoadTimeout bounds reading durable triage state at boot.
const stateLoadTimeout = 30 * time.Second

// SyncerHandle wraps the syncer with shutdown.
type SyncerHandle struct {
	*syncer.Syncer
}

// Shutdown implements do.Shutdownable.
func (h *SyncerHandle) Shutdown() error {
	return h.Syncer.Close()
}

// ProvideSyncer provides the background finished-state propagator.
func ProvideSyncer(i do.Injector) (*SyncerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	remoteHandle := do.MustInvoke[*RemoteClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	s := syncer.New(remoteHandle.Client, cfg.Sync.MaxConcurrent, syncJobTimeout, log.Logger)
	return &SyncerHandle{Syncer: s}, nil
}

// ProvideEngine provides the triage engine, wired to the snapshot, store,
// syncer, later queue, and cover resolver. The syncer's outcome recorder
// binds here, after both sides exist.
func ProvideEngine(i do.Injector) (*triage.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	snapshot := do.MustInvoke[*catalog.Snapshot](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	syncHandle := do.MustInvoke[*SyncerHandle](i)
	laterHandle := do.MustInvoke[*LaterQueueHandle](i)
	coverHandle := do.MustInvoke[*CoverResolverHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	engine := triage.NewEngine(triage.Options{
		Snapshot:     snapshot,
		Store:        storeHandle.Store,
		Sync:         syncHandle.Syncer,
		Later:        laterHandle.LaterQueue,
		Covers:       coverHandle.Resolver,
		Logger:       log.Logger,
		UndoTTL:      cfg.Triage.UndoTTL,
		PersistSkips: cfg.Triage.PersistSkips,
	})
	syncHandle.SetRecorder(engine)

	// Durable state goes live before the first session: queues served at
	// boot must already exclude previously marked and processed entities.
	ctx, cancel := context.WithTimeout(context.Background(), stateLoadTimeout)
	defer cancel()
	if err := engine.Load(ctx); err != nil {
		return nil, fmt.Errorf("load triage state: %w", err)
	}

	return engine, nil
}
