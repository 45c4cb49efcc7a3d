package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and the database schema",
		Long: "Create the configuration directory with a default config.yaml, then\n" +
			"create the database schema and seed its metadata tables.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	written, err := writeConfigIfMissing(a.configDir, a.flags.dataDir)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if written {
		a.log.WithField("dir", a.configDir).Info("wrote default configuration")
	}

	db, _, err := a.open(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()
	info, err := db.Info(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "citydb initialized: %s (%s, SRID %d)\n", info.Connection, info.Dialect, info.SRID)
	return nil
}
