// Package engineconfig loads the engine's tunable configuration from a
// TOML file, with environment-variable fallbacks for the common
// development knobs.
package engineconfig

import (
	"os"

	"github.com/BurntSushi/toml"
)

// EconomyConfig sets the shop price multipliers (spec defaults 1.0 / 0.5).
type EconomyConfig struct {
	BuyMultiplier  float64 `toml:"buy_multiplier"`
	SellMultiplier float64 `toml:"sell_multiplier"`
}

// CombatSystemConfig sets the player damage roll range and swing cadence.
type CombatSystemConfig struct {
	MinDamage       int   `toml:"min_damage"`
	MaxDamage       int   `toml:"max_damage"`
	SwingIntervalMs int64 `toml:"swing_interval_ms"`
}

// SchedulerConfig caps how many due actions one tick may execute.
type SchedulerConfig struct {
	MaxActionsPerTick int `toml:"max_actions_per_tick"`
}

// Config is the full engine configuration, loaded once at boot.
type Config struct {
	EngineId   string             `toml:"engine_id"`
	NatsURL    string             `toml:"nats_url"`
	WorldFile  string             `toml:"world_file"`
	DBPath     string             `toml:"db_path"`
	TelnetPort string             `toml:"telnet_port"`
	WebPort    string             `toml:"web_port"`
	LogLevel   string             `toml:"log_level"`
	LogPretty  bool               `toml:"log_pretty"`
	Economy    EconomyConfig      `toml:"economy"`
	Combat     CombatSystemConfig `toml:"combat"`
	Scheduler  SchedulerConfig    `toml:"scheduler"`
}

// Default returns the compiled-in defaults used when no file and no env
// override a value.
func Default() Config {
	return Config{
		EngineId:   getEnv("ENGINE_ID", "e1"),
		NatsURL:    getEnv("NATS_URL", ""),
		WorldFile:  getEnv("WORLD_FILE", "world.yaml"),
		DBPath:     getEnv("DB_PATH", "duskhollow.db"),
		TelnetPort: getEnv("TELNET_PORT", "2323"),
		WebPort:    getEnv("WEB_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnv("LOG_PRETTY", "") == "true",
		Economy: EconomyConfig{
			BuyMultiplier:  1.0,
			SellMultiplier: 0.5,
		},
		Combat: CombatSystemConfig{
			MinDamage:       2,
			MaxDamage:       8,
			SwingIntervalMs: 2000,
		},
		Scheduler: SchedulerConfig{
			MaxActionsPerTick: 64,
		},
	}
}

// Load reads path as TOML over the Default() baseline. A missing file
// is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
