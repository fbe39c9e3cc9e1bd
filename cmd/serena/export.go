package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/common"
	"github.com/Veraticus/serena/internal/config"
	"github.com/Veraticus/serena/internal/model"
	"github.com/Veraticus/serena/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the result cache",
	}
	cmd.AddCommand(exportSheetsCmd())
	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Write the cached records to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			cfg, err := config.LoadSheetsConfig(v)
			if err != nil {
				return common.NewUserError("Google Sheets is not configured", err)
			}

			writer, err := sheets.NewWriter(cmd.Context(), *cfg, slog.Default())
			if err != nil {
				return err
			}

			records := loadCache(v).Records()
			id, err := writer.Write(cmd.Context(), records)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Exported %d records to https://docs.google.com/spreadsheets/d/%s", len(records), id)))
			return nil
		},
	}
}

func exportCSVCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the cached records to a CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records := loadCache(viper.GetViper()).Records()

			if output == "" || output == "-" {
				return writeCSV(cmd.OutOrStdout(), records)
			}

			f, err := os.Create(config.ExpandPath(output)) //nolint:gosec // user-chosen output path
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := writeCSV(f, records); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Wrote %d records to %s", len(records), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func writeCSV(w io.Writer, records []model.NormalizedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheets.Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(sheets.Rows(records)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func sheetsAuthCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			tokenFile := config.ExpandPath(v.GetString("sheets.token_file"))

			oc := sheets.OAuth2Config{
				ClientID:     firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
				ClientSecret: firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
				TokenFile:    tokenFile,
				Addr:         addr,
			}
			if oc.ClientID == "" || oc.ClientSecret == "" {
				return common.NewUserError("set sheets.client_id and sheets.client_secret first", common.ErrMissingConfig)
			}

			out := cmd.OutOrStdout()
			_, err := sheets.Authorize(cmd.Context(), oc, func(url string) {
				_, _ = fmt.Fprintln(out, cli.FormatInfo("Open this URL to authorize Google Sheets access:"))
				_, _ = fmt.Fprintln(out, url)
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+tokenFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "local address for the OAuth callback")
	return cmd
}
