package cmd

import (
	"fmt"

	"github.com/iksnae/chat-session/internal"
	"github.com/iksnae/chat-session/internal/transport"
)

// app bundles the store, client and backend built from the loaded config
type app struct {
	paths   internal.StoragePaths
	backend string // effective history backend
	store   *internal.Store
	client  *internal.Client
	remote  transport.Backend
	closeFn func() error
}

// openApp wires storage, transport and the session store. Storage that
// cannot be opened degrades to memory-only history with a warning.
func openApp(renderer internal.Renderer) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	paths, err := internal.GetStoragePaths(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage paths: %w", err)
	}

	backend := cfg.EffectiveBackend()
	persister, closeFn, err := internal.OpenPersister(backend, paths)
	if err != nil {
		internal.LogWarn("History storage unavailable, this session will not be saved: %v", err)
		backend = internal.BackendMemory
		persister = internal.NewMemoryPersister()
	}

	opts := []internal.StoreOption{internal.WithMaxSessions(cfg.History.MaxSessions)}
	if renderer != nil {
		opts = append(opts, internal.WithRenderer(renderer))
	}
	store := internal.NewStore(persister, opts...)
	store.Initialize()

	remote, uploader := transport.FromConfig(cfg)
	internal.LogDebug("Using %s backend at %s", cfg.API.Provider, remote.Endpoint())

	return &app{
		paths:   paths,
		backend: backend,
		store:   store,
		client:  internal.NewClient(store, remote, uploader),
		remote:  remote,
		closeFn: closeFn,
	}, nil
}

// Close releases the storage
func (a *app) Close() {
	if a.closeFn == nil {
		return
	}
	if err := a.closeFn(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// reportStorage records a write that did not reach durable storage; the
// store has already warned about the first one
func reportStorage(err error) {
	if err != nil {
		internal.LogDebug("History not saved: %v", err)
	}
}
