package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/serena/internal/cli"
	"github.com/Veraticus/serena/internal/config"
	"github.com/Veraticus/serena/internal/extract"
	"github.com/Veraticus/serena/internal/highlight"
)

func highlightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "highlight <root> [file.html...]",
		Short: "Mark extracted values inside the rendered A2P documents",
		Long: `Write a .highlighted.html copy of each rendered document under <root>
with every extracted value wrapped in its field color. Without file
arguments every document in A2P-classified-html is processed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return highlightRoot(cmd.OutOrStdout(), args[0], args[1:], slog.Default())
		},
	}
}

func highlightRoot(w io.Writer, root string, files []string, logger *slog.Logger) error {
	layout := config.NewLayout(root)
	if err := layout.Validate(); err != nil {
		return err
	}

	records, err := extract.LoadRawDir(layout.A2PJSON, logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, cli.FormatWarning("No extraction records found; run `serena extract` first"))
		return nil
	}

	var results []highlight.Result
	if len(files) == 0 {
		results, err = highlight.Dir(layout.A2PHTML, records, logger)
		if err != nil {
			return err
		}
	} else {
		for _, f := range files {
			path := f
			if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
				path = filepath.Join(layout.A2PHTML, path)
			}
			res, err := highlight.File(path, records)
			if err != nil {
				_, _ = fmt.Fprintln(w, cli.FormatError(err.Error()))
				continue
			}
			results = append(results, res)
		}
	}

	for _, res := range results {
		line := fmt.Sprintf("%s (%d spans)", res.Output, res.Spans)
		if res.Failed {
			_, _ = fmt.Fprintln(w, cli.FormatWarning(line+", extraction failed"))
			continue
		}
		_, _ = fmt.Fprintln(w, cli.FormatSuccess(line))
	}
	_, _ = fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("%d documents highlighted", len(results))))
	return nil
}
