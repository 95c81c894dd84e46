package container

import (
	"context"
	"fmt"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/handlers"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/service"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage/memory"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage/postgres"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage/sqlite"
	"github.com/forusastrid/info-booth-2025/common/bootstrap"
	"github.com/forusastrid/info-booth-2025/common/config"
	"github.com/forusastrid/info-booth-2025/common/db"
	"github.com/forusastrid/info-booth-2025/common/events"
)

// Container holds all initialized services (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	Store  storage.LedgerStore
	Events events.Publisher

	LedgerService *service.LedgerService
	LedgerHandler *handlers.LedgerHandler
}

// NewContainer opens the configured storage engine and wires services and
// handlers on top of the bootstrapped components
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	store, err := openStore(ctx, components)
	if err != nil {
		return nil, err
	}
	components.AddCleanup(store.Close)

	publisher := openPublisher(components)
	components.AddCleanup(publisher.Close)

	ledgerService := service.NewLedgerService(
		store,
		components.Cache,
		publisher,
		components.Metrics,
		components.Logger,
	)

	ledgerHandler := handlers.NewLedgerHandler(ledgerService, components.Logger)

	return &Container{
		Components:    components,
		Store:         store,
		Events:        publisher,
		LedgerService: ledgerService,
		LedgerHandler: ledgerHandler,
	}, nil
}

// openStore selects the persistence engine from configuration. Business
// logic only ever sees the storage.LedgerStore interface.
func openStore(ctx context.Context, components *bootstrap.Components) (storage.LedgerStore, error) {
	cfg := components.Config
	log := components.Logger

	switch cfg.Storage.Engine {
	case config.EnginePostgres:
		database, err := db.New(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store := postgres.New(database)
		if err := store.InitSchema(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to init postgres schema: %w", err)
		}
		log.Info("storage ready", "engine", "postgres")
		return store, nil

	case config.EngineSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Info("storage ready", "engine", "sqlite", "path", cfg.Storage.SQLitePath)
		return store, nil

	case config.EngineMemory:
		log.Info("storage ready", "engine", "memory")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage engine: %s", cfg.Storage.Engine)
	}
}

func openPublisher(components *bootstrap.Components) events.Publisher {
	cfg := components.Config
	if !cfg.Events.Enabled {
		return events.NewNoopPublisher()
	}

	components.Logger.Info("event publisher ready",
		"brokers", cfg.Events.Brokers,
		"topic", cfg.Events.Topic,
	)
	return events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
}
