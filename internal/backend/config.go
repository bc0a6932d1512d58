package backend

import (
	"fmt"

	"brankas/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		ObjectStore:        appConfig.ObjectStore,
		ObjectStoreDir:     appConfig.ObjectStoreDir,
		ObjectStoreBaseURL: appConfig.ObjectStoreBaseURL,
		GCSBucket:          appConfig.GCSBucket,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	// AMQP is optional, so we don't validate it

	switch c.ObjectStore {
	case "", LocalObjectStore:
		if c.ObjectStoreDir == "" {
			return fmt.Errorf("object store directory is required for local object store")
		}
	case GCSObjectStore:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs object store")
		}
	default:
		return fmt.Errorf("invalid object store: %s", c.ObjectStore)
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
