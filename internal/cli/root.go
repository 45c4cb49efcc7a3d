// Package cli implements the citydb command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/citydb/internal/paths"
	"github.com/mesh-intelligence/citydb/pkg/citydb"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds the global flag values.
type rootFlags struct {
	configDir   string
	dataDir     string
	dialect     string
	dsn         string
	logLevel    string
	metricsAddr string
}

// app is the state shared by the subcommands of one root command.
type app struct {
	flags     rootFlags
	configDir string
	settings  *settings
	log       *logrus.Logger
}

// NewRootCmd creates the "citydb" command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "citydb",
		Short: "Store and transfer 3D city feature graphs",
		Long: "citydb imports feature graphs from JSON Lines files into a relational\n" +
			"3D city database and exports them back.",
		Version:           citydb.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: ./.citydb or the user config directory)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory for SQLite databases (default: ./.citydb-data)")
	pf.StringVar(&a.flags.dialect, "dialect", "", "database dialect: sqlite or postgres")
	pf.StringVar(&a.flags.dsn, "dsn", "", "database connection string")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newIndexCmd(a))
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "citydb:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// setup resolves the directories and loads the configuration before any
// subcommand runs.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = dir

	s, err := loadSettings(dir, cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = s

	log, err := newLogger(s.LogLevel, s.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// config returns the run configuration with the data directory resolved.
func (a *app) config() (types.Config, error) {
	cfg := a.settings.Config
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.Database.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.Database.DataDir = dataDir
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// open connects to the configured database, creating the schema if needed.
func (a *app) open(ctx context.Context) (*citydb.Database, types.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	db, err := citydb.Open(ctx, cfg.Database, a.entry())
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}

func (a *app) entry() *logrus.Entry {
	return logrus.NewEntry(a.log)
}

// configErrors are user errors.
var configErrors = []error{
	types.ErrDialectEmpty,
	types.ErrDialectUnknown,
	types.ErrDSNEmpty,
	types.ErrBatchSizeInvalid,
	types.ErrThreadsInvalid,
	types.ErrSRIDInvalid,
	errInvalidSetting,
	citydb.ErrUnknownObjectClass,
}

func exitCode(err error) int {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	return exitSysError
}
