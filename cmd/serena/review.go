package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/serena/internal/tui"
)

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Browse the result cache interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			records := loadCache(v).Records()
			return tui.Review(cmd.Context(), records, tui.ThemeByName(v.GetString("tui.theme")))
		},
	}
}
