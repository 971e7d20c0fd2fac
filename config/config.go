package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"imagededup/signalhandler"
	"imagededup/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "IMAGEDEDUP"

// Defaults
const (
	DefaultThreshold     = 0.3
	DefaultViewerCommand = "feh -."
	DefaultHasher        = "phash"
	DefaultFormat        = "tsv"
)

type Config struct {
	Threshold     float64  `mapstructure:"-"`
	AutoThreshold *float64 `mapstructure:"-"` // nil when not configured
	AutoDeleteAll bool     `mapstructure:"auto_delete_all"`
	List          bool     `mapstructure:"list"`
	Pairs         bool     `mapstructure:"pairs"`
	Force         bool     `mapstructure:"force"`
	Quiet         bool     `mapstructure:"quiet"`
	DryRun        bool     `mapstructure:"dry_run"`
	Yes           bool     `mapstructure:"yes"`
	Hasher        string   `mapstructure:"hasher"`
	Workers       int      `mapstructure:"workers"`
	Format        string   `mapstructure:"format"`
	Viewer        struct {
		Command  string `mapstructure:"command"`
		Required bool   `mapstructure:"required"`
	} `mapstructure:"viewer"`
	Journal struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"journal"`
	Logging struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"logging"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"threshold":       "threshold",
	"auto-threshold":  "auto_threshold",
	"auto-delete-all": "auto_delete_all",
	"list":            "list",
	"pairs":           "pairs",
	"force":           "force",
	"quiet":           "quiet",
	"dry-run":         "dry_run",
	"yes":             "yes",
	"hasher":          "hasher",
	"workers":         "workers",
	"format":          "format",
	"viewer-command":  "viewer.command",
	"viewer-required": "viewer.required",
	"journal":         "journal.enabled",
	"journal-path":    "journal.path",
	"log-level":       "logging.level",
	"log-file":        "logging.file",
}

// Load merges, from lowest to highest precedence, the defaults, the config
// file, a .env file, IMAGEDEDUP_* environment variables and the changed
// flags. configFile overrides the config search path when not empty.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.imagededup")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/imagededup")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("threshold", DefaultThreshold)
	v.SetDefault("auto_delete_all", false)
	v.SetDefault("list", false)
	v.SetDefault("pairs", false)
	v.SetDefault("force", false)
	v.SetDefault("quiet", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("yes", false)
	v.SetDefault("hasher", DefaultHasher)
	v.SetDefault("workers", signalhandler.GetOptimalProcs())
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("viewer.command", DefaultViewerCommand)
	v.SetDefault("viewer.required", false)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", utils.GetDefaultJournalPath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	threshold, err := utils.ParseThreshold(v.GetString("threshold"))
	if err != nil {
		return nil, err
	}
	cfg.Threshold = threshold

	if v.IsSet("auto_threshold") && strings.TrimSpace(v.GetString("auto_threshold")) != "" {
		auto, err := utils.ParseThreshold(v.GetString("auto_threshold"))
		if err != nil {
			return nil, fmt.Errorf("auto threshold: %w", err)
		}
		cfg.AutoThreshold = &auto
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d", cfg.Workers)
	}

	return &cfg, nil
}
