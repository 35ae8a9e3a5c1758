// @title Management Dashboard API
// @version 1.0
// @description Calendar intelligence and rule-driven decision support for managers
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for protected endpoints

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	_ "github.com/gti/mgmt-dashboard/docs"
	"github.com/gti/mgmt-dashboard/internal/cache"
	"github.com/gti/mgmt-dashboard/internal/config"
	"github.com/gti/mgmt-dashboard/internal/database"
	"github.com/gti/mgmt-dashboard/internal/handler"
	"github.com/gti/mgmt-dashboard/internal/logging"
	"github.com/gti/mgmt-dashboard/internal/metrics"
	"github.com/gti/mgmt-dashboard/internal/models"
	"github.com/gti/mgmt-dashboard/internal/plugin"
	"github.com/gti/mgmt-dashboard/internal/repository"
	"github.com/gti/mgmt-dashboard/internal/service"
)

const serviceName = "mgmt-dashboard"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx := context.Background()
	m := metrics.New()

	// Decision store: Postgres when configured, memory otherwise
	var store service.DecisionStore
	if cfg.PersistenceEnabled() {
		db, err := database.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		store = repository.NewDecisionRepository(db.Pool)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, decisions are kept in memory")
		store = repository.NewMemoryDecisionRepository()
	}

	// Event source: iCalendar feed when configured, sample events otherwise
	var events service.EventSource
	if cfg.ICalURL != "" {
		events = repository.NewICalEventRepository(cfg.ICalURL, loc, logger)
	} else {
		logger.Warn().Msg("ICAL_URL not set, serving sample events")
		events = repository.NewMemoryEventRepository(repository.SampleEvents(time.Now().In(loc)))
	}

	// Event cache: Redis when configured, memory otherwise
	var eventCache cache.EventCache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		eventCache = cache.NewRedisEventCache(client, cfg.EventCacheTTL, logger)
	} else {
		eventCache = cache.NewMemoryEventCache(cfg.EventCacheTTL)
	}

	// Decision plugins
	plugins := plugin.NewRegistry()
	if cfg.DecisionPluginURL != "" {
		if err := plugins.Register(plugin.NewHTTPDecisionPlugin("remote-scorer", cfg.DecisionPluginURL, cfg.PluginTimeout)); err != nil {
			logger.Fatal().Err(err).Msg("failed to register decision plugin")
		}
	}

	// Initialize services
	intel := service.NewCalendarIntelligence(service.WithLocation(loc))
	tools := service.NewCalendarToolServer(events, eventCache, intel, m, logger)
	engine := service.NewDecisionEngine(store, plugins, m, logger, cfg.PluginTimeout)

	if err := bootstrapDecisions(ctx, cfg, engine, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to load decision rules")
	}

	e := handler.NewRouter(handler.Services{
		Calendar:  tools,
		Decisions: engine,
		Metrics:   m,
		APIKey:    cfg.APIKey,
		Logger:    logger,
	})

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	engine.Wait()

	logger.Info().Msg("server stopped")
}

// bootstrapDecisions loads rules from RULES_FILE and seeds sample data.
// Without seeding, file rules are only added to an empty rule set so
// restarts against Postgres do not duplicate them.
func bootstrapDecisions(ctx context.Context, cfg *config.Config, engine *service.DecisionEngine, logger zerolog.Logger) error {
	var rules []models.DecisionRule
	if cfg.RulesFile != "" {
		loaded, err := config.LoadRules(cfg.RulesFile)
		if err != nil {
			return err
		}
		logger.Info().Str("path", cfg.RulesFile).Int("rules", len(loaded)).Msg("loaded decision rules")
		rules = loaded
	}

	if cfg.SeedData {
		return engine.SeedDecisions(ctx, rules)
	}

	existing, err := engine.ListRules(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, rule := range rules {
		if _, err := engine.AddRule(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}
