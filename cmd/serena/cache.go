package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/model"
	"github.com/Veraticus/serena/internal/sheets"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the result cache",
	}
	cmd.AddCommand(cacheShowCmd())
	cmd.AddCommand(cachePathCmd())
	return cmd
}

func cacheShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records := loadCache(viper.GetViper()).Records()
			return printRecords(cmd.OutOrStdout(), records, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json)")
	return cmd
}

func cachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the result cache lives",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cachePath(viper.GetViper()))
		},
	}
}

func printRecords(w io.Writer, records []model.NormalizedRecord, format string) error {
	switch format {
	case "json":
		if records == nil {
			records = []model.NormalizedRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}
		return nil

	case "table":
		if len(records) == 0 {
			_, err := fmt.Fprintln(w, cli.FormatInfo("The cache is empty"))
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, strings.Join(sheets.Header, "\t"))
		for _, row := range sheets.Rows(records) {
			_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()

	default:
		return fmt.Errorf("invalid output format: %s", format)
	}
}
