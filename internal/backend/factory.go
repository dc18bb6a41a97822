package backend

import (
	"context"
	"fmt"

	"budgeteer/internal/adapters"
	"budgeteer/internal/cache"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
	"budgeteer/internal/store"
	"budgeteer/internal/store/disk"
	"budgeteer/internal/store/memory"
)

// diskCacheBytes bounds diskv's own read cache.
const diskCacheBytes = 1024 * 1024

// DefaultFactory builds the backends known to this binary
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a DefaultFactory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend builds the backend selected by cfg, wrapped in the month cache when enabled
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		b   store.Backend
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		b, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)
	case DiskBackend:
		b = disk.New(config.DiskBasePath, diskCacheBytes)
		f.logger.InfoContext(ctx, "Initialized disk backend", log.FieldPath, config.DiskBasePath)
	case MemoryBackend:
		b = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.CacheSize <= 0 {
		return &BackendResult{Backend: b, Cleanup: b.Close}, nil
	}

	months := cache.NewLRUCache[store.MonthDocument](config.CacheSize, config.CacheTTL)
	manager := cache.NewManager(func(n int) {
		f.logger.Debug("Expired month documents evicted", log.FieldCount, n)
	})
	manager.Register(months)
	manager.StartCleanup(config.CacheTTL)

	return &BackendResult{
		Backend: adapters.NewCachingBackend(b, months),
		Cleanup: func() error {
			manager.Stop()
			return b.Close()
		},
	}, nil
}
