// Package sheets exports extraction records to a Google Sheets spreadsheet.
package sheets

import (
	"errors"
	"time"
)

// DefaultSheetTitle names the tab records are written to.
const DefaultSheetTitle = "Records"

var (
	// ErrNoAuth means neither a service account nor OAuth2 credentials were given.
	ErrNoAuth = errors.New("no authentication method configured")
	// ErrAmbiguousAuth means both a service account and OAuth2 credentials were given.
	ErrAmbiguousAuth = errors.New("multiple authentication methods configured; use either OAuth2 or service account")
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetTitle         string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "Serena Extractions",
		SheetTitle:       DefaultSheetTitle,
		EnableFormatting: true,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// HasOAuth reports whether OAuth2 client credentials are present. A
// refresh token may come from the config itself or from TokenFile.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return ErrNoAuth
	}
	if hasOAuth && hasServiceAccount {
		return ErrAmbiguousAuth
	}

	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}
