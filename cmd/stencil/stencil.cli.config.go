package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itsatony/go-stencil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML config file layout.
//
//	search_paths: [templates, shared]
//	storage:
//	  driver: sqlite
//	  dsn: templates.db
//	default: "?"
//	max_depth: 8
//	log_level: info
type fileConfig struct {
	SearchPaths []string      `yaml:"search_paths"`
	Storage     storageConfig `yaml:"storage"`
	Default     *string       `yaml:"default"`
	MaxDepth    int           `yaml:"max_depth"`
	LogLevel    string        `yaml:"log_level"`
}

type storageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// globalFlags holds flag values that override fileConfig.
type globalFlags struct {
	configPath   string
	logLevel     string
	searchPaths  []string
	driver       string
	dsn          string
	defaultValue string
	maxDepth     int
}

func loadFileConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// resolveConfig loads the config file and applies the flags cmd was given.
func resolveConfig(cmd *cobra.Command, flags *globalFlags) (*fileConfig, error) {
	cfg, err := loadFileConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed(FlagSearchPath) {
		cfg.SearchPaths = flags.searchPaths
	}
	if changed(FlagDriver) {
		cfg.Storage.Driver = flags.driver
	}
	if changed(FlagDSN) {
		cfg.Storage.DSN = flags.dsn
	}
	if changed(FlagDefault) {
		value := flags.defaultValue
		cfg.Default = &value
	}
	if changed(FlagMaxDepth) {
		cfg.MaxDepth = flags.maxDepth
	}
	if changed(FlagLogLevel) || cfg.LogLevel == "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

// newLogger builds a console logger writing to w.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)), nil
}

// openStorage picks the template storage: a named driver first, then the
// search paths, else an empty in-memory storage.
func openStorage(cfg *fileConfig) (stencil.TemplateStorage, error) {
	switch {
	case cfg.Storage.Driver != "":
		return stencil.OpenStorage(cfg.Storage.Driver, cfg.Storage.DSN)
	case len(cfg.SearchPaths) > 0:
		return stencil.NewFilesystemStorage(cfg.SearchPaths...)
	default:
		return stencil.NewMemoryStorage(), nil
	}
}

// engineOptions translates the config into engine options.
func engineOptions(cfg *fileConfig, logger *zap.Logger) []stencil.Option {
	opts := []stencil.Option{stencil.WithLogger(logger)}
	if cfg.MaxDepth > 0 {
		opts = append(opts, stencil.WithMaxDepth(cfg.MaxDepth))
	}
	if cfg.Default != nil {
		opts = append(opts, stencil.WithDefault(*cfg.Default))
	}
	return opts
}
