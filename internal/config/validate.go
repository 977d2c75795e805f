package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Validate checks Config for problems that would break the engine at runtime.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.Ledger.DefaultLimit <= 0 {
		errs = append(errs, fmt.Sprintf("LEDGER_DEFAULT_LIMIT must be positive, got %d", c.Ledger.DefaultLimit))
	}
	if c.Ledger.MaxIntake <= 0 {
		errs = append(errs, fmt.Sprintf("LEDGER_MAX_INTAKE must be positive, got %d", c.Ledger.MaxIntake))
	}
	if c.Ledger.CutoffHour < 0 || c.Ledger.CutoffHour > 23 {
		errs = append(errs, fmt.Sprintf("LEDGER_CUTOFF_HOUR must be 0–23, got %d", c.Ledger.CutoffHour))
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("LEDGER_TIMEZONE %q is not a valid IANA zone name", c.Ledger.Timezone))
	}

	if len(c.Ledger.IntakeBreakpoints) != 4 {
		errs = append(errs, fmt.Sprintf("LEDGER_INTAKE_BREAKPOINTS must have exactly 4 values, got %d", len(c.Ledger.IntakeBreakpoints)))
	} else if !strictlyAscending(c.Ledger.IntakeBreakpoints) {
		errs = append(errs, "LEDGER_INTAKE_BREAKPOINTS must be strictly ascending")
	}

	if len(c.Ledger.HeadroomBreakpoints) != 4 {
		errs = append(errs, fmt.Sprintf("LEDGER_HEADROOM_BREAKPOINTS must have exactly 4 values, got %d", len(c.Ledger.HeadroomBreakpoints)))
	} else if !strictlyAscending(c.Ledger.HeadroomBreakpoints) {
		errs = append(errs, "LEDGER_HEADROOM_BREAKPOINTS must be strictly ascending")
	}

	if len(c.Ledger.Units) == 0 {
		errs = append(errs, "LEDGER_UNITS must list at least one unit suffix")
	}

	if c.Store.Path == "" {
		errs = append(errs, "STORE_PATH is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}

	if c.Flood.MaxPerMinute <= 0 {
		errs = append(errs, fmt.Sprintf("FLOOD_MAX_PER_MINUTE must be positive, got %d", c.Flood.MaxPerMinute))
	}

	// Telegram token: warn only, the admin API still works without the bot
	if c.Telegram.Token == "" {
		slog.Warn("TELEGRAM_TOKEN is empty, the Telegram front end will not start")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

// Equal adjacent breakpoints would make a tier unreachable.
func strictlyAscending[T int | float64](vals []T) bool {
	for i := 1; i < len(vals); i++ {
		if vals[i] <= vals[i-1] {
			return false
		}
	}
	return true
}
