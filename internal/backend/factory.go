package backend

import (
	"context"
	"errors"
	"fmt"

	"brankas/internal/amqp"
	"brankas/internal/log"
	"brankas/internal/objectstore"
	gsheet "brankas/internal/sheets/google"
	"brankas/internal/storage"
	"brankas/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Resources, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	objects, err := f.createObjectStore(ctx, config)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// Initialize AMQP client (optional)
	var publisher *amqp.Client
	if config.AMQPURL != "" {
		publisher, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, events will wait in the outbox",
				log.FieldError, err)
			publisher = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	res := &Resources{Store: store, Objects: objects, Publisher: publisher}
	res.Cleanup = func() error {
		var errs []error
		if res.Publisher != nil {
			errs = append(errs, res.Publisher.Close())
		}
		errs = append(errs, res.Store.Close())
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createObjectStore(ctx context.Context, config Config) (objectstore.Store, error) {
	if config.ObjectStore == GCSObjectStore {
		creds, err := gsheet.CredentialsFromEnv()
		if err != nil {
			return nil, fmt.Errorf("gcs credentials: %w", err)
		}
		store, err := objectstore.NewGCSStore(ctx, config.GCSBucket, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS object store: %w", err)
		}
		f.logger.Info("Initialized GCS object store", "bucket", config.GCSBucket)
		return store, nil
	}

	store, err := objectstore.NewLocalStore(config.ObjectStoreDir, config.ObjectStoreBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local object store: %w", err)
	}
	f.logger.Info("Initialized local object store", "dir", config.ObjectStoreDir)
	return store, nil
}

// NewLedger creates the Google Sheets ledger the mirror worker writes to.
func NewLedger(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*gsheet.Client, error) {
	cli, err := gsheet.New(ctx, spreadsheetID, sheetName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
