// Package backend builds the configured document store.
package backend

import (
	"context"
	"time"

	"budgeteer/internal/store"
)

// CleanupFunc releases whatever the backend holds open.
type CleanupFunc func() error

// BackendResult is a ready backend and the function that releases it
type BackendResult struct {
	Backend store.Backend
	Cleanup CleanupFunc
}

// Factory creates backends from configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config selects and configures a backend
type Config struct {
	Type BackendType

	SQLiteDBPath string
	DiskBasePath string

	// Month document cache in front of the backend; size 0 disables it.
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType names a storage backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	DiskBackend   BackendType = "disk"
	SQLiteBackend BackendType = "sqlite"
)

// String returns the configuration value of bt
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt is a known backend
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, DiskBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
