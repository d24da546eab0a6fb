// -----------------------------------------------------------------------
// App - builds and owns the service graph
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/transfero/internal/common"
	"github.com/ternarybob/transfero/internal/handlers"
	"github.com/ternarybob/transfero/internal/interfaces"
	"github.com/ternarybob/transfero/internal/server"
	"github.com/ternarybob/transfero/internal/services/bridge"
	"github.com/ternarybob/transfero/internal/services/delivery"
	"github.com/ternarybob/transfero/internal/services/dispatcher"
	"github.com/ternarybob/transfero/internal/services/events"
	"github.com/ternarybob/transfero/internal/services/monitor"
	"github.com/ternarybob/transfero/internal/services/translator"
	badgerstore "github.com/ternarybob/transfero/internal/storage/badger"
	"github.com/ternarybob/transfero/internal/workers/preprocess"
)

// App holds the wired service graph
type App struct {
	Config *common.Config
	Server *server.Server

	db           *badgerstore.BadgerDB
	eventService interfaces.EventService
	bridge       interfaces.CompletionBridge
	monitor      *monitor.Service
	wsHandler    *handlers.WebSocketHandler
	logger       arbor.ILogger

	cancel context.CancelFunc
}

// New wires every service from configuration. The returned app owns all
// resources until Close.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	db.StartGC(ctx)

	storage := badgerstore.NewSubJobStorage(db, logger)
	eventService := events.NewService(logger)

	registry, err := common.LoadLanguageRegistry(config.Languages.File)
	if err != nil {
		cancel()
		db.Close()
		return nil, err
	}
	if registry != nil {
		logger.Info().Int("languages", registry.Count()).Msg("Language registry loaded")
	}

	completionBridge := bridge.NewService(eventService, config.GraceWindow(), logger)
	if err := completionBridge.Start(ctx); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	counters := monitor.NewCounters()
	livenessMonitor := monitor.NewService(storage, counters, eventService, config, logger)
	if err := livenessMonitor.Start(ctx, config.Monitor.ScanSchedule); err != nil {
		cancel()
		db.Close()
		return nil, err
	}

	collector := delivery.NewSyncCollector(logger)
	publisher := delivery.NewEventPublisher(eventService, logger)
	deliveryMux := delivery.NewMux(collector, publisher)

	backend := translator.NewHTTPBackend(&config.Translator, logger)
	invoker := translator.NewInvoker(backend, storage, deliveryMux, counters, config, logger)

	fanout := dispatcher.NewService(storage, completionBridge, invoker, deliveryMux, eventService, counters, registry, config, logger)

	if config.Worker.Enabled {
		worker := preprocess.NewWorker(eventService, config.Worker.Concurrency, logger)
		if err := worker.Start(ctx); err != nil {
			cancel()
			db.Close()
			return nil, err
		}
	} else {
		logger.Info().Msg("Embedded preprocessing workers disabled - expecting external worker population")
	}

	wsHandler := handlers.NewWebSocketHandler(eventService, config, logger)
	httpServer := server.New(config, &server.Handlers{
		Translate: handlers.NewTranslateHandler(fanout, collector, config, logger),
		Requests:  handlers.NewRequestHandler(storage, logger),
		Status:    handlers.NewStatusHandler(livenessMonitor, config, logger),
		WebSocket: wsHandler,
	}, logger)

	return &App{
		Config:       config,
		Server:       httpServer,
		db:           db,
		eventService: eventService,
		bridge:       completionBridge,
		monitor:      livenessMonitor,
		wsHandler:    wsHandler,
		logger:       logger,
		cancel:       cancel,
	}, nil
}

// Close releases all resources in reverse dependency order
func (a *App) Close() {
	a.cancel()
	a.wsHandler.Close()
	a.monitor.Stop()
	a.bridge.Stop()
	if err := a.eventService.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close event service")
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close storage")
	}
	a.logger.Info().Msg("Application closed")
}
