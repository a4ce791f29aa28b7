package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/ai"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/config"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/errors/noop"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/errors/sentry"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/postgres"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/redis"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/telegram"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/agents"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/metrics"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/queue"
	repo "github.com/DrChenMor/tooth-tech-scribe-sub002/internal/repository/postgres"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/services/implement"
	workflowsvc "github.com/DrChenMor/tooth-tech-scribe-sub002/internal/services/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/workers"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Databases
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Event stream
	producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()

	// Repositories
	contentRepo := repo.NewContentRepository(pgClient.DB())
	suggRepo := repo.NewSuggestionRepository(pgClient.DB())
	ruleRepo := repo.NewWorkflowRuleRepository(pgClient.DB())
	execRepo := repo.NewWorkflowExecutionRepository(pgClient.DB())
	adminRepo := repo.NewAdminRepository(pgClient.DB())

	// Optional collaborators
	notifier := initTelegram(cfg, log)
	analyzer := initAI(cfg, log)

	// Agents
	registry := agents.NewDefaultRegistry(analyzer)
	createDefaultAgents(registry, cfg)
	enhancer := agents.NewEnhancer(suggRepo, redisClient)

	// Workflow
	implementer := implement.New(producer)
	evaluator := workflowsvc.NewEvaluator(workflowsvc.Deps{
		Rules:       ruleRepo,
		Executions:  execRepo,
		Suggestions: suggRepo,
		Admin:       adminRepo,
		Implementer: implementer,
		Notifier:    notifier,
		Publisher:   producer,
		Locker:      redisClient,
	})

	// Task queue
	tasks := queue.New(cfg.Engine.QueueConcurrency, cfg.Engine.QueueMaxRetries)

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewSuggestionWorker(workers.SuggestionWorkerDeps{
		ContentRepo: contentRepo,
		SuggRepo:    suggRepo,
		Registry:    registry,
		Enhancer:    enhancer,
		Evaluator:   evaluator,
		Tasks:       tasks,
		Publisher:   producer,
	}, cfg.Workers.SuggestionInterval, cfg.Workers.SuggestionEnabled))
	scheduler.RegisterWorker(workers.NewExpiryWorker(suggRepo,
		cfg.Workers.ExpiryInterval, cfg.Workers.ExpiryEnabled))

	// Metrics
	if cfg.Metrics.Enabled {
		metrics.Register()
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Errorf("Metrics endpoint stopped: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tasks.Start(ctx)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Info("System initialized successfully")

	waitForShutdown(cancel, scheduler, tasks, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initTelegram initializes the admin notifier; nil when not configured.
func initTelegram(cfg *config.Config, log *logger.Logger) workflowsvc.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.AdminChatID == 0 {
		log.Info("Telegram notifications disabled")
		return nil
	}

	n, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, cfg.Telegram.ExtraAdmins)
	if err != nil {
		log.Warnf("Failed to initialize Telegram notifier: %v", err)
		return nil
	}
	return n
}

// initAI initializes the OpenAI analysis client; nil when no key is set, in
// which case the ai_insights agent type stays unregistered.
func initAI(cfg *config.Config, log *logger.Logger) ai.Analyzer {
	if cfg.AI.OpenAIKey == "" {
		log.Info("AI analysis disabled (no API key)")
		return nil
	}

	client, err := ai.NewClient(cfg.AI.OpenAIKey, cfg.AI.Model, cfg.AI.Timeout, cfg.AI.ReqPerMinute)
	if err != nil {
		log.Warnf("Failed to initialize AI client: %v", err)
		return nil
	}
	return client
}

// createDefaultAgents instantiates one agent per registered type with the
// engine-level defaults.
func createDefaultAgents(registry *agents.Registry, cfg *config.Config) {
	base := agents.DefaultConfig()
	base.ConfidenceThreshold = cfg.Engine.ConfidenceThreshold
	base.MaxSuggestions = cfg.Engine.MaxSuggestions
	base.MinViews = int64(cfg.Engine.MinViews)
	base.SuggestionTTLHours = int(cfg.Engine.SuggestionTTL.Hours())

	for _, typ := range registry.Types() {
		registry.Create(typ, typ, base)
	}
}

// waitForShutdown blocks until SIGINT/SIGTERM and tears components down in
// reverse start order.
func waitForShutdown(cancel context.CancelFunc, scheduler *workers.Scheduler, tasks *queue.Queue, tracker errors.Tracker, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Infof("Received signal %v, shutting down...", sig)

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}
	tasks.Stop()
	cancel()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	_ = tracker.Flush(flushCtx)

	log.Info("Shutdown complete")
}
