package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapadmin/pkg/store"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "/") {
		return fmt.Errorf("base_url must start with '/', got %q", c.BaseURL)
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}
	if !store.IsRegistered(c.Database.Driver) {
		return &store.UnknownAdapterError{Type: c.Database.Driver, Available: store.ListAdapters()}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for table, v := range c.Views {
		if v.PageSize < 0 {
			return fmt.Errorf("views.%s.page_size must not be negative", table)
		}
	}
	return nil
}

// ParseLevel converts a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log_level %q: use debug, info, warn or error", s)
	}
	return level, nil
}
