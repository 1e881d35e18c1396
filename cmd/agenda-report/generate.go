package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clerkdesk/agenda-report/internal/usecase/engine"
	"github.com/clerkdesk/agenda-report/internal/usecase/run"
	"github.com/clerkdesk/agenda-report/pkg/llm"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		input     string
		output    string
		sheet     string
		policy    string
		skipDecor bool
		quiet     bool
		include   []int
		exclude   []int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the two-pass generation and write the report document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy != "" {
				a.cfg.Generation.FailurePolicy = policy
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			// Ctrl-C requests cooperative cancellation: the in-flight model
			// call is abandoned and no document is written.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := llm.NewLlamaClient(&a.cfg.Runtime)
			svc := run.NewService(a.cfg, client, a.logger)

			res, err := svc.Execute(ctx, run.Request{
				InputPath:          input,
				OutputPath:         output,
				Sheet:              sheet,
				SkipDecorationRows: skipDecor,
				Overrides:          overrides(include, exclude),
				OnEvent:            eventPrinter(quiet),
			})
			if err != nil {
				return err
			}

			fmt.Printf("\nReport written to %s (%d items", res.OutputPath, res.TotalItems)
			if n := len(res.Failures); n > 0 {
				fmt.Printf(", %d skipped", n)
			}
			fmt.Println(")")
			for _, f := range res.Failures {
				a.logger.Warn("item skipped", zap.Error(f))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "agenda source file (.csv or .xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "agenda_report.docx", "destination document path")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name (xlsx only; defaults to the first sheet)")
	cmd.Flags().StringVar(&policy, "policy", "", "failure policy override: abort or skip")
	cmd.Flags().BoolVar(&skipDecor, "skip-decoration-rows", false, "drop rows whose date cell does not start with a digit")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress streamed model output")
	cmd.Flags().IntSliceVar(&include, "include", nil, "item indexes to force-include (as printed by preview)")
	cmd.Flags().IntSliceVar(&exclude, "exclude", nil, "item indexes to force-exclude (as printed by preview)")
	cmd.MarkFlagRequired("input")

	return cmd
}

// eventPrinter streams run progress to stdout: a banner per pass and the
// model's tokens as they arrive.
func eventPrinter(quiet bool) func(engine.Event) {
	return func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventPassStarted:
			if ev.Pass == 1 {
				fmt.Printf("\n--- Summarizing item %d ---\n", ev.ItemIndex)
			} else {
				fmt.Println("\n--- Formatting report ---")
			}
		case engine.EventToken:
			if !quiet {
				fmt.Print(ev.Token)
			}
		case engine.EventPassCompleted:
			if ev.Result != nil && ev.Result.Tokens > 0 {
				fmt.Printf("\n[%d tokens, %.1f tok/s]\n", ev.Result.Tokens, ev.Result.TokensPerSecond())
			}
		case engine.EventItemSkipped:
			fmt.Printf("\n[item %d skipped: %v]\n", ev.ItemIndex, ev.Err)
		}
	}
}
