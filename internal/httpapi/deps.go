package httpapi

import (
	"database/sql"
	"sync/atomic"

	"sfcars-engine/internal/config"
	"sfcars-engine/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic store of the live config.Config
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// HMAC key for bearer tokens
	JWTSecret []byte
}
