package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Auth struct {
		// Keychain account the JWT signing secret lives under.
		// SFCARS_JWT_SECRET overrides it for headless deployments.
		KeyringAccount string `yaml:"keyring_account"`
	} `yaml:"auth"`

	Payments struct {
		ServiceFeePct float64 `yaml:"service_fee_pct"`
		HouseAccount  string  `yaml:"house_account"`
	} `yaml:"payments"`

	Billing struct {
		SweepSeconds int `yaml:"sweep_seconds"`
	} `yaml:"billing"`

	Search struct {
		DefaultSort string `yaml:"default_sort"` // distance | price
	} `yaml:"search"`

	RateLimit struct {
		PerSecond float64 `yaml:"per_second"`
		Burst     int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
