package config

import (
	"os"

	"github.com/Veraticus/serena/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig builds the Google Sheets export configuration. Values set
// through viper (config file or SERENA_SHEETS_* variables) win over the
// GOOGLE_SHEETS_* environment variables, which win over defaults.
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	cfg := sheets.DefaultConfig()

	pick := func(key, env string) string {
		if s := v.GetString(key); s != "" {
			return s
		}
		return os.Getenv(env)
	}

	cfg.ServiceAccountPath = ExpandPath(pick("sheets.service_account_path", "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	cfg.ClientID = pick("sheets.client_id", "GOOGLE_SHEETS_CLIENT_ID")
	cfg.ClientSecret = pick("sheets.client_secret", "GOOGLE_SHEETS_CLIENT_SECRET")
	cfg.RefreshToken = pick("sheets.refresh_token", "GOOGLE_SHEETS_REFRESH_TOKEN")
	cfg.TokenFile = ExpandPath(pick("sheets.token_file", "GOOGLE_SHEETS_TOKEN_FILE"))
	cfg.SpreadsheetID = pick("sheets.spreadsheet_id", "GOOGLE_SHEETS_SPREADSHEET_ID")

	if s := pick("sheets.spreadsheet_name", "GOOGLE_SHEETS_SPREADSHEET_NAME"); s != "" {
		cfg.SpreadsheetName = s
	}
	if s := v.GetString("sheets.sheet_title"); s != "" {
		cfg.SheetTitle = s
	}
	if s := v.GetString("sheets.time_zone"); s != "" {
		cfg.TimeZone = s
	}
	if n := v.GetInt("sheets.batch_size"); n > 0 {
		cfg.BatchSize = n
	}
	if v.IsSet("sheets.formatting") {
		cfg.EnableFormatting = v.GetBool("sheets.formatting")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
