package di

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/backup"
	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/risk"
	"github.com/aristath/compass/internal/modules/simulation"
	"github.com/aristath/compass/internal/modules/trading"
)

// InitializeServices creates all services and stores them in the container.
// Services are created in dependency order.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Event bus and manager first, everything downstream emits through them
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	// Simulation engine. A fixed seed makes every run reproducible, which
	// is what you want in tests and demos; production leaves it unseeded.
	var src rand.Source
	if cfg.SimulationSeed != 0 {
		seed := uint64(cfg.SimulationSeed)
		src = rand.NewPCG(seed, seed)
		log.Info().Int64("seed", cfg.SimulationSeed).Msg("Simulation engine seeded")
	}
	container.SimEngine = simulation.NewEngine(src, log)
	container.SimCache = simulation.NewCache(cfg.CacheTTL)

	// Plan analysis services. The risk manager and trading engine read
	// their operational defaults (risk fraction, signal windows) from the
	// settings repository on each call, so stored changes apply live.
	container.Optimizer = optimization.NewOptimizer()
	container.Advisor = allocation.NewAdvisor()
	container.RiskManager = risk.NewManager(container.Advisor, container.SettingsRepo, log)

	// Trading engine writes executions into the ledger journal
	container.TradingEngine = trading.NewEngine(
		container.TradeRepo,
		container.RiskManager,
		container.SettingsRepo,
		container.EventManager,
		log,
	)

	// Backup service, only when a bucket is configured
	if cfg.Backup != nil && cfg.Backup.Enabled {
		client, err := backup.NewClient(context.Background(), cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup client: %w", err)
		}
		container.BackupService = backup.NewService(
			client,
			[]backup.Snapshotter{container.ConfigDB, container.PlansDB, container.LedgerDB},
			cfg.DataDir,
			cfg.Backup.Prefix,
			log,
		)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backup service initialized")
	}

	log.Debug().Msg("Services initialized")

	return nil
}
