package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/citydb/internal/paths"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CITYDB"
)

// Config keys.
const (
	cfgKeyDialect     = "database.dialect"
	cfgKeyDSN         = "database.dsn"
	cfgKeyBatchSize   = "database.batch_size"
	cfgKeySRID        = "database.srid"
	cfgKeyDataDir     = "data_dir"
	cfgKeyThreads     = "threads"
	cfgKeyFailFast    = "fail_fast"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
	cfgKeyMetricsAddr = "metrics.addr"
)

var errInvalidSetting = errors.New("invalid setting")

// settings is the merged view of config.yaml, CITYDB_* variables and
// flags.
type settings struct {
	Config      types.Config
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Database databaseSection `yaml:"database"`
	DataDir  string          `yaml:"data_dir,omitempty"`
	Threads  int             `yaml:"threads,omitempty"`
	FailFast bool            `yaml:"fail_fast"`
	Log      logSection      `yaml:"log"`
}

type databaseSection struct {
	Dialect   string `yaml:"dialect"`
	DSN       string `yaml:"dsn,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
	SRID      int    `yaml:"srid,omitempty"`
}

type logSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfigFile() configFile {
	return configFile{
		Database: databaseSection{Dialect: types.DialectSQLite},
		Log:      logSection{Level: "info", Format: "text"},
	}
}

// flagKeys binds global flags to config keys. Flags win when set.
var flagKeys = map[string]string{
	"dialect":      cfgKeyDialect,
	"dsn":          cfgKeyDSN,
	"log-level":    cfgKeyLogLevel,
	"metrics-addr": cfgKeyMetricsAddr,
}

// loadSettings reads config.yaml from configDir. A missing file is not an
// error; defaults apply.
func loadSettings(configDir string, flags *pflag.FlagSet) (*settings, error) {
	v := viper.New()
	def := defaultConfigFile()
	v.SetDefault(cfgKeyDialect, def.Database.Dialect)
	v.SetDefault(cfgKeyLogLevel, def.Log.Level)
	v.SetDefault(cfgKeyLogFormat, def.Log.Format)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &settings{
		Config: types.Config{
			Database: types.DatabaseConfig{
				Dialect:   v.GetString(cfgKeyDialect),
				DSN:       v.GetString(cfgKeyDSN),
				DataDir:   v.GetString(cfgKeyDataDir),
				BatchSize: v.GetInt(cfgKeyBatchSize),
				SRID:      v.GetInt(cfgKeySRID),
			},
			Threads:  v.GetInt(cfgKeyThreads),
			FailFast: v.GetBool(cfgKeyFailFast),
		},
		LogLevel:    v.GetString(cfgKeyLogLevel),
		LogFormat:   v.GetString(cfgKeyLogFormat),
		MetricsAddr: v.GetString(cfgKeyMetricsAddr),
	}, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone. It reports whether the file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# citydb configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// newLogger builds the process logger. format is "text" or "json".
func newLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %v", errInvalidSetting, err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	switch format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("%w: log format %q", errInvalidSetting, format)
	}
	return log, nil
}
