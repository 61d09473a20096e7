package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
	"github.com/papercomputeco/parley/pkg/eventstream/nop"
	"github.com/papercomputeco/parley/pkg/memory"
	"github.com/papercomputeco/parley/pkg/memory/inmemory"
	"github.com/papercomputeco/parley/pkg/memory/postgres"
	"github.com/papercomputeco/parley/pkg/memory/sqlite"
)

// Storage and event providers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// NewMemoryDriver opens the memory driver selected by cfg.Provider.
func NewMemoryDriver(ctx context.Context, cfg config.StorageConfig) (memory.Driver, error) {
	switch cfg.Provider {
	case StorageMemory:
		return inmemory.NewDriver(), nil
	case StorageSQLite, "":
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite storage requires a database path")
		}
		d, err := sqlite.NewDriver(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite memory: %w", err)
		}
		return d, nil
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires a DSN")
		}
		d, err := postgres.NewDriver(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres memory: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q (want %s, %s or %s)",
			cfg.Provider, StorageMemory, StorageSQLite, StoragePostgres)
	}
}

// NewPublisher builds the event publisher selected by cfg.Provider.
func NewPublisher(cfg config.EventsConfig) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case EventsNop, "":
		return nop.NewPublisher(), nil
	case EventsKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.BrokerList(),
			Topic:   cfg.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown events provider %q (want %s or %s)", cfg.Provider, EventsNop, EventsKafka)
	}
}
