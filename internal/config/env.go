package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Environment variables that override file settings.
const (
	EnvDataDir      = "TANKCAST_DATA_DIR"
	EnvModel        = "TANKCAST_MODEL"
	EnvContextDays  = "TANKCAST_CONTEXT_DAYS"
	EnvHorizonDays  = "TANKCAST_HORIZON_DAYS"
	EnvPriceBaseURL = "TANKCAST_PRICE_BASE_URL"
)

// ApplyEnv loads a .env file from the working directory if present and
// overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("component", "config").Msg(".env file not found, relying on actual environment variables")
	}

	cfg.General.DataDir = getEnvWithDefault(EnvDataDir, cfg.General.DataDir)
	cfg.Forecast.Model = getEnvWithDefault(EnvModel, cfg.Forecast.Model)
	cfg.Forecast.ContextDays = getEnvIntWithDefault(EnvContextDays, cfg.Forecast.ContextDays)
	cfg.Forecast.HorizonDays = getEnvIntWithDefault(EnvHorizonDays, cfg.Forecast.HorizonDays)
	cfg.Prices.BaseURL = getEnvWithDefault(EnvPriceBaseURL, cfg.Prices.BaseURL)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("component", "config").Str("key", key).Str("value", value).Msg("ignoring non-integer override")
	}
	return defaultValue
}
