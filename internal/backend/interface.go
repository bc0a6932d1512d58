package backend

import (
	"context"

	"brankas/internal/amqp"
	"brankas/internal/objectstore"
	"brankas/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Resources bundles everything the services need from the outside world.
type Resources struct {
	Store   storage.Store
	Objects objectstore.Store
	// Publisher is nil when no broker is configured; events then stay in
	// the outbox until one is.
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Resources, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	ObjectStore        string
	ObjectStoreDir     string
	ObjectStoreBaseURL string
	GCSBucket          string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

const (
	LocalObjectStore = "local"
	GCSObjectStore   = "gcs"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
