package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/citydb/pkg/citydb"
)

type transferFlags struct {
	threads  int
	failFast bool
}

func (f *transferFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.threads, "threads", 0, "worker threads (default: config threads or the number of CPUs)")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "stop at the first feature that fails")
}

// apply overrides the configured values with the flags that were set.
func (f *transferFlags) apply(cmd *cobra.Command, threads int, failFast bool) (int, bool) {
	if cmd.Flags().Changed("threads") {
		threads = f.threads
	}
	if cmd.Flags().Changed("fail-fast") {
		failFast = f.failFast
	}
	return threads, failFast
}

func newImportCmd(a *app) *cobra.Command {
	var tf transferFlags
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import features from JSON Lines files",
		Long: "Import one feature graph per line from each file. References between\n" +
			"features are resolved after all files are read.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			threads, failFast := tf.apply(cmd, cfg.Threads, cfg.FailFast)
			reg := newRegistry()
			var summary citydb.ImportSummary
			err = withMetrics(cmd.Context(), a.settings.MetricsAddr, reg, a.entry(), func(ctx context.Context) error {
				var err error
				summary, err = citydb.Import(ctx, db, args, citydb.ImportOptions{
					Threads:    threads,
					FailFast:   failFast,
					Registerer: reg,
				}, a.entry())
				return err
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s features (%s including sub-features) from %d files in %s\n",
				humanize.Comma(summary.Imported), humanize.Comma(summary.Features), summary.Files,
				summary.Duration.Round(time.Millisecond))
			if summary.Failed > 0 {
				fmt.Fprintf(out, "Failed:     %s\n", humanize.Comma(summary.Failed))
			}
			if summary.Resolved > 0 || summary.Unresolved > 0 {
				fmt.Fprintf(out, "References: %s resolved, %s unresolved\n",
					humanize.Comma(int64(summary.Resolved)), humanize.Comma(int64(summary.Unresolved)))
			}
			return err
		},
	}
	tf.register(cmd)
	return cmd
}
