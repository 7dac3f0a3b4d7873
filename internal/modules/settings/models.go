package settings

// SettingDefaults holds the default values for all configurable settings.
// Values stored in config.db override these; the map also acts as the
// registry of known keys for update validation.
var SettingDefaults = map[string]interface{}{
	// Simulation
	"simulation_trials_default":     1000.0,  // Monte Carlo trials per run
	"simulation_initial_investment": 10000.0, // Default starting value per run
	"simulation_cache_ttl_seconds":  3600.0,  // TTL for cached simulation results

	// Risk management
	"risk_per_trade_default": 0.02, // Fraction of balance risked per trade

	// Trading signals
	"momentum_window":       14.0, // Lookback window for momentum signals
	"mean_reversion_window": 20.0, // Lookback window for mean reversion signals

	// Scheduler
	"rebalance_scan_enabled": 1.0, // 1.0 = nightly rebalance scan registered
	"cache_sweep_enabled":    1.0, // 1.0 = hourly cache sweep registered

	// Backups
	"backup_enabled":        0.0,  // 1.0 = enabled, 0.0 = disabled
	"backup_retention_days": 30.0, // Days to keep remote backups (0 = keep forever)
}

// IsKnownKey reports whether key is a registered setting
func IsKnownKey(key string) bool {
	_, ok := SettingDefaults[key]
	return ok
}

// SettingUpdate is the request body for updating a setting value
type SettingUpdate struct {
	Value interface{} `json:"value"`
}
