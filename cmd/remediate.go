package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tackle-hunger/charity-cli/internal/model"
	"github.com/tackle-hunger/charity-cli/internal/remediate"
	"github.com/tackle-hunger/charity-cli/internal/report"
	"github.com/tackle-hunger/charity-cli/pkg/charityapi"
)

var (
	remediateLimit  int
	remediateApply  bool
	remediateOutput string
	remediateFormat string
	remediateRules  string
)

var remediateCmd = &cobra.Command{
	Use:   "remediate",
	Short: "Classify site addresses and relocate mailing addresses",
	Long:  "Fetches a batch of sites, flags non-visitable addresses, moves each flagged address to the parent organization and substitutes a physical sibling address on the site. Dry-run by default; pass --apply to write.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("remediate"); err != nil {
			return err
		}

		limit := remediateLimit
		if limit == 0 {
			limit = cfg.Remediate.Limit
		}

		mode := model.ModeDryRun
		if remediateApply {
			mode = model.ModeApply
		}

		classifier, err := initClassifier(remediateRules)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		dir := charityapi.NewAdapter(initAPI())
		workflow := remediate.New(dir, classifier, cfg.Remediate.ModifiedBy)

		run := &model.Run{
			ID:        uuid.NewString(),
			Mode:      mode,
			Limit:     limit,
			StartedAt: time.Now().UTC(),
		}

		summary, runErr := workflow.Run(ctx, limit, mode)
		run.Summary = summary
		run.FinishedAt = time.Now().UTC()

		// Persist whatever completed, even on cancellation.
		if summary != nil {
			if err := persistRun(ctx, st, run); err != nil {
				zap.L().Error("save run failed", zap.String("run_id", run.ID), zap.Error(err))
			}
		}
		if runErr != nil {
			return eris.Wrap(runErr, "remediate")
		}

		formatSummary(os.Stdout, run)

		if remediateOutput != "" {
			if err := exportRun(run, remediateOutput, remediateFormat); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Report written to %s\n", remediateOutput)
		}
		return nil
	},
}

func init() {
	remediateCmd.Flags().IntVar(&remediateLimit, "limit", 0, "max sites to process (default from config)")
	remediateCmd.Flags().BoolVar(&remediateApply, "apply", false, "perform writes (default is dry-run)")
	remediateCmd.Flags().StringVar(&remediateOutput, "output", "", "write a report file")
	remediateCmd.Flags().StringVar(&remediateFormat, "format", "json", "report format: json, csv or xlsx")
	remediateCmd.Flags().StringVar(&remediateRules, "rules", "", "YAML classification rule override file")
	rootCmd.AddCommand(remediateCmd)
}

func exportRun(run *model.Run, path, format string) error {
	switch format {
	case "xlsx":
		return report.WriteXLSX(path, run)
	case "csv", "json":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		if format == "csv" {
			return report.WriteCSV(f, run)
		}
		return report.WriteJSON(f, run)
	default:
		return eris.Errorf("unknown report format %q", format)
	}
}

// formatSummary writes the aggregate counts of a run to w.
func formatSummary(out io.Writer, run *model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s (%s)\n", run.ID, run.Mode)
	if s := run.Summary; s != nil {
		_, _ = fmt.Fprintf(w, "Processed:\t%d\n", s.Processed)
		_, _ = fmt.Fprintf(w, "Relocated:\t%d\n", s.Relocated)
		_, _ = fmt.Fprintf(w, "Skipped (not flagged):\t%d\n", s.SkippedNotFlagged)
		_, _ = fmt.Fprintf(w, "Skipped (no substitute):\t%d\n", s.SkippedNoSubstitute)
		_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed())
		if s.PartialRelocations > 0 {
			_, _ = fmt.Fprintf(w, "  Partial relocations:\t%d\t(org updated, site not; reconcile manually)\n", s.PartialRelocations)
		}
	}
	_ = w.Flush()
}
