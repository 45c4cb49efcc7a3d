// Package paths resolves the configuration and data directories of the
// citydb command.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "citydb"

// Working-directory relative names used when nothing else is configured.
const (
	DefaultConfigDirName = ".citydb"
	DefaultDataDirName   = ".citydb-data"
)

// Environment overrides.
const (
	EnvConfigDir = "CITYDB_CONFIG_DIR"
	EnvDataDir   = "CITYDB_DATA_DIR"
)

// ConfigFileName is the name of the configuration file inside the config
// directory.
const ConfigFileName = "config.yaml"

// platformDir can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/citydb (fallback ~/.config/citydb)
// macOS:   ~/Library/Application Support/citydb
// Windows: %APPDATA%/citydb
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory.
//
// Linux:   $XDG_DATA_HOME/citydb (fallback ~/.local/share/citydb)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir applies flag > CITYDB_CONFIG_DIR > ./.citydb if it
// exists > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if local, ok := existingDir(DefaultConfigDirName); ok {
		return local, nil
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > data_dir from config.yaml > CITYDB_DATA_DIR >
// ./.citydb-data.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return filepath.Abs(DefaultDataDirName)
}

// ConfigFile returns the path of config.yaml inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}

func existingDir(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return abs, true
}
