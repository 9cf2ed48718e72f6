package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// suspicious about it. Errors block a save; warnings don't.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Search.DefaultSort = strings.ToLower(strings.TrimSpace(out.Search.DefaultSort))
	out.Auth.KeyringAccount = strings.TrimSpace(out.Auth.KeyringAccount)
	out.Payments.HouseAccount = strings.TrimSpace(out.Payments.HouseAccount)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Search.DefaultSort {
	case "", "distance", "price":
	default:
		res.addErr("search.default_sort must be distance or price, got %q", out.Search.DefaultSort)
	}

	if out.Payments.ServiceFeePct < 0 || out.Payments.ServiceFeePct >= 1 {
		res.addErr("payments.service_fee_pct must be in [0, 1)")
	}
	if out.Payments.HouseAccount == "" {
		res.addWarn("payments.house_account is empty; service fees will accrue to the default account")
	}

	if out.Billing.SweepSeconds <= 0 {
		res.addErr("billing.sweep_seconds must be > 0")
	} else if out.Billing.SweepSeconds < 10 {
		res.addWarn("billing.sweep_seconds is very low (%d); the sweep will hammer the database.", out.Billing.SweepSeconds)
	}

	if out.RateLimit.PerSecond < 0 {
		res.addErr("rate_limit.per_second must be >= 0")
	}
	if out.RateLimit.PerSecond > 0 && out.RateLimit.Burst <= 0 {
		res.addErr("rate_limit.burst must be > 0 when rate limiting is on")
	}

	return out, res
}
