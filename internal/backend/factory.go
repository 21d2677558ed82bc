package backend

import (
	"context"
	"fmt"

	"expensedash/internal/log"
	"expensedash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		f.logger.ErrorContext(ctx, "Invalid session storage configuration", log.NewFields().
			WithErrorType(log.ErrorTypeConfiguration).WithError(err).ToSlice()...)
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLitePath, f.logger)
	if err != nil {
		f.logger.ErrorContext(ctx, "Failed to open session storage", log.NewFields().
			WithErrorType(log.ErrorTypeStorage).WithError(err).ToSlice()...)
		return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
	}

	f.logger.DebugContext(ctx, "Initialized session storage", log.FieldBackend, config.Type, "db_path", config.SQLitePath)

	return &BackendResult{
		Storage: store,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := storage.NewMemoryFrom(config.Seed)

	f.logger.DebugContext(ctx, "Initialized session storage", log.FieldBackend, config.Type, "seeded_keys", len(config.Seed))

	return &BackendResult{
		Storage: store,
		Cleanup: store.Close,
	}, nil
}
