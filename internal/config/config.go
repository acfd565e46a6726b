package config

import (
	"os"
	"path/filepath"
)

const appName = "gitprofile"

type Config struct {
	Storage StorageConfig
	Git     GitConfig
	Log     LogConfig
	Server  ServerConfig
	Switch  SwitchConfig
}

type StorageConfig struct {
	DataDir string
}

type GitConfig struct {
	Binary string
}

type LogConfig struct {
	Level string
}

type ServerConfig struct {
	Port  int
	Token string
}

type SwitchConfig struct {
	// Strict makes a switch that matches nothing an error instead of a no-op.
	Strict bool
}

func defaults() Config {
	return Config{
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Git: GitConfig{
			Binary: "git",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Server: ServerConfig{
			Port: 4317,
		},
	}
}

// FilePath returns the config file location:
// $XDG_CONFIG_HOME/gitprofile/config.toml, falling back to ~/.config.
// GITPROFILE_CONFIG overrides it.
func FilePath() string {
	if p := os.Getenv("GITPROFILE_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, appName, "config.toml")
}

// Load reads configuration from defaults, the TOML config file, and
// environment variables (GITPROFILE_*), in increasing priority.
func Load() (Config, error) {
	return loadFromPath(FilePath())
}

func loadFromPath(path string) (Config, error) {
	return loadWith(newFileBackend(path))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
