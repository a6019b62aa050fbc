package main

import (
	"github.com/ustaz-ai/backend/internal/config"
	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/internal/router"
	"github.com/ustaz-ai/backend/internal/services"
	"github.com/ustaz-ai/backend/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	cfg          *config.Config
	table        *router.StrategyTable
	engine       *router.Engine
	taskQueue    services.TaskQueue
	worker       *services.Worker
	resetService *services.MonthlyResetService
}

// bootstrap initializes all application dependencies: database, routing
// engine, task queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	services.InitSystemLogger(models.GetDB())

	// Routing core: strategy table and provider registry are frozen here,
	// before the first request.
	table := router.NewStrategyTable(cfg.Routing.Strategies)
	registry := router.BuildRegistry(cfg)
	tracker := router.NewBudgetTracker(models.GetDB(), table)
	engine := router.NewEngine(table, registry, tracker, &cfg.Routing)

	// Conversation persistence runs off the request path (Redis queue when
	// enabled, in-process goroutine otherwise).
	conversationService := services.NewConversationService(models.GetDB())
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(conversationService.SaveExchange)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(conversationService.SaveExchange)
			if err := worker.Start(); err != nil {
				logger.Errorf("Failed to start async worker: %v", err)
			}
		}
	}

	resetService := services.NewMonthlyResetService(models.GetDB(), tracker)
	if err := resetService.StartScheduler(cfg.Routing.ResetSchedule); err != nil {
		logger.Fatalf("Failed to start monthly reset scheduler: %v", err)
	}

	return &appServices{
		cfg:          cfg,
		table:        table,
		engine:       engine,
		taskQueue:    taskQueue,
		worker:       worker,
		resetService: resetService,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.resetService.StopScheduler()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
