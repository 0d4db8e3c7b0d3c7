package apiclient

import (
	"fmt"
	"strings"
)

// Config holds configuration for the remote API client.
type Config struct {
	// BaseURL is the root URL of the remote API.
	BaseURL string `mapstructure:"base_url" default:""`
	// GraphQLToken authenticates cursor-protocol (GraphQL) requests.
	GraphQLToken string `mapstructure:"graphql_token" default:""`
	// DataExportToken authenticates page-protocol report requests.
	DataExportToken string `mapstructure:"dataexport_token" default:""`
	// TimeoutSeconds is the default per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// MaxAttempts bounds attempts for transient faults.
	MaxAttempts int `mapstructure:"max_attempts" default:"6"`
	// BaseWaitMillis is the first backoff interval.
	BaseWaitMillis int `mapstructure:"base_wait_ms" default:"2300"`
	// MaxWaitMillis caps a single backoff interval.
	MaxWaitMillis int `mapstructure:"max_wait_ms" default:"30000"`
	// PageDelayMillis is the fixed delay between pagination requests,
	// applied to respect upstream rate limits.
	PageDelayMillis int `mapstructure:"page_delay_ms" default:"2300"`
}

// Validate reports missing required settings. Called at startup so a bad
// configuration fails before any network resource is acquired.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("api base_url is required")
	}
	if strings.TrimSpace(c.GraphQLToken) == "" {
		return fmt.Errorf("api graphql_token is required")
	}
	if strings.TrimSpace(c.DataExportToken) == "" {
		return fmt.Errorf("api dataexport_token is required")
	}
	return nil
}
