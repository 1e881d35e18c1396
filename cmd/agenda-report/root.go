package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clerkdesk/agenda-report/pkg/config"
	"github.com/clerkdesk/agenda-report/pkg/logger"
)

// app carries the dependencies shared by all subcommands, initialized once
// in the root command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var settingsPath string

	root := &cobra.Command{
		Use:   "agenda-report",
		Short: "Generate a council agenda report from a meeting spreadsheet",
		Long: "agenda-report reads a CSV or XLSX agenda export, summarizes each included " +
			"item with a locally hosted model in two passes, and writes a styled Word report.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(settingsPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg.Server.Environment)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&settingsPath, "settings", "settings.json",
		"path to the settings file (created with defaults if missing)")

	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newSheetsCmd(a))
	root.AddCommand(newPreviewCmd(a))
	return root
}

// overrides merges include/exclude row lists into a per-item override map.
// Exclusions win on conflict.
func overrides(include, exclude []int) map[int]bool {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	out := make(map[int]bool, len(include)+len(exclude))
	for _, i := range include {
		out[i] = true
	}
	for _, i := range exclude {
		out[i] = false
	}
	return out
}
