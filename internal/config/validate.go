package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// Quota mode and constants
	if c.Quota.Mode != ModeFree && c.Quota.Mode != ModePaid {
		errs = append(errs, fmt.Sprintf("QUOTA_MODE must be %q or %q, got %q", ModeFree, ModePaid, c.Quota.Mode))
	}
	if c.Quota.Store != "postgres" && c.Quota.Store != "memory" {
		errs = append(errs, fmt.Sprintf("QUOTA_STORE must be \"postgres\" or \"memory\", got %q", c.Quota.Store))
	}
	if c.Quota.DailyFreeLimit < 0 {
		errs = append(errs, "QUOTA_DAILY_FREE_LIMIT must not be negative")
	}
	if c.Quota.InitialCredits < 0 {
		errs = append(errs, "QUOTA_INITIAL_CREDITS must not be negative")
	}
	if c.Quota.DailyGrant < 0 {
		errs = append(errs, "QUOTA_DAILY_GRANT must not be negative")
	}
	if c.Quota.MaxBalance < 1 {
		errs = append(errs, "QUOTA_MAX_BALANCE must be at least 1")
	}
	if c.Quota.ResetTo < 0 {
		errs = append(errs, "QUOTA_RESET_TO must not be negative")
	}
	if c.Quota.Mode == ModePaid &&
		c.Quota.InitialCredits == 0 && c.Quota.DailyGrant == 0 && c.Quota.ResetTo == 0 {
		errs = append(errs, "paid mode needs QUOTA_INITIAL_CREDITS, QUOTA_DAILY_GRANT or QUOTA_RESET_TO to be positive")
	}

	// OpenAI
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required when OPENAI_ENABLED is set")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// DB password: warn only, local setups often run trust auth
	if c.DB.Password == "" && c.Quota.Store == "postgres" {
		slog.Warn("DB_PASSWORD is empty — connecting to postgres without a password")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
