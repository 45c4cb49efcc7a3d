package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/citydb/pkg/citydb"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		tf        transferFlags
		output    string
		typeNames []string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "export -o <file>",
		Short: "Export root features to a JSON Lines file",
		Long: "Export every feature that is not contained in another feature, one\n" +
			"feature graph per line. Names for --type are local names of known\n" +
			"classes (Building) or qualified names ({namespace}Building).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			names, err := resolveTypeNames(db, typeNames)
			if err != nil {
				return err
			}
			threads, failFast := tf.apply(cmd, cfg.Threads, cfg.FailFast)
			reg := newRegistry()
			var summary citydb.ExportSummary
			err = withMetrics(cmd.Context(), a.settings.MetricsAddr, reg, a.entry(), func(ctx context.Context) error {
				var err error
				summary, err = citydb.Export(ctx, db, output, citydb.ExportOptions{
					Threads:    threads,
					Types:      names,
					Limit:      limit,
					FailFast:   failFast,
					ScratchDir: cfg.Database.DataDir,
					Registerer: reg,
				}, a.entry())
				return err
			})
			if err != nil {
				return err
			}

			size := "0 B"
			if st, statErr := os.Stat(output); statErr == nil {
				size = humanize.Bytes(uint64(st.Size()))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %s features to %s (%s) in %s\n",
				humanize.Comma(summary.Exported), output, size, summary.Duration.Round(time.Millisecond))
			if summary.Failed > 0 {
				fmt.Fprintf(out, "Failed:   %s\n", humanize.Comma(summary.Failed))
			}
			return nil
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringSliceVar(&typeNames, "type", nil, "export only root features of these classes")
	cmd.Flags().IntVar(&limit, "limit", 0, "export at most this many root features")
	cmd.MarkFlagRequired("output")
	return cmd
}

// resolveTypeNames maps class names given on the command line to qualified
// names. A bare local name must match exactly one known class.
func resolveTypeNames(db *citydb.Database, names []string) ([]types.Name, error) {
	classes := db.ObjectClasses().All()
	var out []types.Name
	for _, s := range names {
		name := types.ParseName(s)
		if name.Namespace != "" {
			out = append(out, name)
			continue
		}
		var matches []types.Name
		for _, oc := range classes {
			if oc.Name.LocalName == name.LocalName {
				matches = append(matches, oc.Name)
			}
		}
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("%w: %s", citydb.ErrUnknownObjectClass, s)
		case 1:
			out = append(out, matches[0])
		default:
			return nil, fmt.Errorf("%w: %s is ambiguous, use {namespace}%s", errInvalidSetting, s, s)
		}
	}
	return out, nil
}
