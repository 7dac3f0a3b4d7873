package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/modules/planning"
	"github.com/aristath/compass/internal/modules/settings"
	"github.com/aristath/compass/internal/modules/trading"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Settings repository (config.db)
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	// Plan repository (plans.db)
	container.PlanRepo = planning.NewRepository(container.PlansDB.Conn(), log)

	// Trade journal (ledger.db)
	container.TradeRepo = trading.NewTradeRepository(container.LedgerDB.Conn(), log)

	log.Debug().Msg("Repositories initialized")

	return nil
}
