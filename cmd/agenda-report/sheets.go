package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clerkdesk/agenda-report/internal/usecase/run"
	"github.com/clerkdesk/agenda-report/pkg/llm"
)

func newSheetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <workbook.xlsx>",
		Short: "List the worksheets in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := run.NewService(a.cfg, llm.NewLlamaClient(&a.cfg.Runtime), a.logger)
			names, err := svc.Sheets(args[0])
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		sheet     string
		skipDecor bool
		include   []int
		exclude   []int
	)

	cmd := &cobra.Command{
		Use:   "preview <source>",
		Short: "Show the items a run would summarize, without calling the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := run.NewService(a.cfg, llm.NewLlamaClient(&a.cfg.Runtime), a.logger)
			items, err := svc.Preview(run.Request{
				InputPath:          args[0],
				Sheet:              sheet,
				SkipDecorationRows: skipDecor,
				Overrides:          overrides(include, exclude),
			})
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("No items selected.")
				return nil
			}
			for _, it := range items {
				fmt.Printf("%4d  %-12s %-32s %s\n", it.Index, it.MeetingDate, it.Section, it.Title)
			}
			fmt.Printf("\n%d item(s) selected\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name (xlsx only)")
	cmd.Flags().BoolVar(&skipDecor, "skip-decoration-rows", false, "drop rows whose date cell does not start with a digit")
	cmd.Flags().IntSliceVar(&include, "include", nil, "item indexes to force-include (as printed by preview)")
	cmd.Flags().IntSliceVar(&exclude, "exclude", nil, "item indexes to force-exclude (as printed by preview)")
	return cmd
}
