// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/compass/internal/backup"
	"github.com/aristath/compass/internal/database"
	"github.com/aristath/compass/internal/events"
	"github.com/aristath/compass/internal/modules/allocation"
	"github.com/aristath/compass/internal/modules/optimization"
	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/risk"
	"github.com/aristath/compass/internal/modules/settings"
	"github.com/aristath/compass/internal/modules/simulation"
	"github.com/aristath/compass/internal/modules/trading"
	"github.com/aristath/compass/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// It is created by Wire() and is the single source of truth for service
// instances: the HTTP server and the scheduler both draw from it, so a
// plan stored through the API is the same plan the nightly scan reads.
type Container struct {
	// Databases
	ConfigDB *database.DB // application settings
	PlansDB  *database.DB // investment plans
	LedgerDB *database.DB // immutable trade journal

	// Repositories
	SettingsRepo *settings.Repository
	PlanRepo     *planning.Repository
	TradeRepo    *trading.TradeRepository

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Services
	SimEngine     *simulation.Engine
	SimCache      *simulation.Cache
	Optimizer     *optimization.Optimizer
	Advisor       *allocation.Advisor
	RiskManager   *risk.Manager
	TradingEngine *trading.Engine
	BackupService *backup.Service // nil when backups are not configured

	// Scheduler with its registered jobs
	Scheduler *scheduler.Scheduler
}

// Close releases all database handles. Closing flushes WAL checkpoints,
// so it must run after the HTTP server and the scheduler have stopped.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.LedgerDB, c.PlansDB, c.ConfigDB} {
		if db != nil {
			db.Close()
		}
	}
}
