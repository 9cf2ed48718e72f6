package config

import (
	"os"
	"strconv"
)

// OverlayEnv applies environment overrides on top of the loaded file.
// Deployment platforms set PORT; everything else is opt-in.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := os.Getenv("SFCARS_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("SFCARS_HOST"); v != "" {
		cfg.App.Host = v
	}
}
