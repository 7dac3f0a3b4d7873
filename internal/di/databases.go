package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/config"
	"github.com/aristath/compass/internal/database"
)

// InitializeDatabases opens all three databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. config.db - application settings
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 2. plans.db - investment plans
	plansDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "plans.db"),
		Profile: database.ProfileStandard,
		Name:    "plans",
	})
	if err != nil {
		configDB.Close()
		return nil, fmt.Errorf("failed to initialize plans database: %w", err)
	}
	container.PlansDB = plansDB

	// 3. ledger.db - immutable trade journal
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger, // maximum safety for the audit trail
		Name:    "ledger",
	})
	if err != nil {
		configDB.Close()
		plansDB.Close()
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{configDB, plansDB, ledgerDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")

	return container, nil
}
