package backend

import (
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/bus"
	"contas/internal/ledger"
	"contas/internal/storage"
	"contas/internal/storage/memory"
)

// Factory wires a ledger repository to a concrete key-value store and the
// configured change-signal transports.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend builds the storage stack for the configured backend type.
func (f *Factory) CreateBackend(config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *Factory) createSQLiteBackend(config Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	changeBus := bus.New()
	notifier, amqpClient := f.wireNotifier(changeBus, config)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	cleanup := func() error {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				f.logger.Warn("Failed to close AMQP client", "error", err)
			}
		}
		return store.Close()
	}

	return &Result{
		Repo:    ledger.NewRepository(store, notifier),
		Bus:     changeBus,
		Cleanup: cleanup,
	}, nil
}

func (f *Factory) createMemoryBackend(config Config) (*Result, error) {
	changeBus := bus.New()
	notifier, amqpClient := f.wireNotifier(changeBus, config)

	f.logger.Info("Initialized memory backend", "amqp_enabled", amqpClient != nil)

	cleanup := func() error {
		if amqpClient != nil {
			return amqpClient.Close()
		}
		return nil
	}

	return &Result{
		Repo:    ledger.NewRepository(memory.New(), notifier),
		Bus:     changeBus,
		Cleanup: cleanup,
	}, nil
}

// wireNotifier builds the notifier chain: the in-process bus always receives
// events; when an AMQP URL is configured the broker does too. A broker that
// cannot be reached at startup is logged and skipped rather than fatal.
func (f *Factory) wireNotifier(changeBus *bus.Bus, config Config) (bus.Notifier, *amqp.Client) {
	if config.AMQPURL == "" {
		return changeBus, nil
	}

	amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without broker signals", "error", err)
		return changeBus, nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return bus.Fanout{changeBus, amqpClient}, amqpClient
}
