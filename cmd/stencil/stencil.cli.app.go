package main

import (
	"io"
	"strings"

	"github.com/itsatony/go-stencil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by every command of one run.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	flags  globalFlags
	config *fileConfig
	logger *zap.Logger
	engine *stencil.Engine
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               CLIName,
		Short:             HelpRootShort,
		Long:              HelpRootLong,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, FlagConfig, FlagConfigShort, "", UsageConfig)
	pf.StringVar(&a.flags.logLevel, FlagLogLevel, FlagDefaultLogLevel, UsageLogLevel)
	pf.StringArrayVarP(&a.flags.searchPaths, FlagSearchPath, FlagSearchPathShort, nil, UsageSearchPath)
	pf.StringVar(&a.flags.driver, FlagDriver, "", UsageDriver+strings.Join(stencil.ListStorageDrivers(), ", "))
	pf.StringVar(&a.flags.dsn, FlagDSN, "", UsageDSN)

	root.AddCommand(
		a.renderCommand(),
		a.validateCommand(),
		a.tokensCommand(),
		a.storeCommand(),
		a.versionCommand(),
	)
	return root
}

// setup resolves configuration and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, &a.flags)
	if err != nil {
		return newExitError(ExitCodeInputError, ErrMsgLoadConfigFailed, err)
	}
	logger, err := newLogger(cfg.LogLevel, a.stderr)
	if err != nil {
		return newExitError(ExitCodeUsageError, ErrMsgInvalidLogLevel, err)
	}
	a.config = cfg
	a.logger = logger
	return nil
}

// openEngine returns the engine over the configured storage, opening it on
// first use.
func (a *app) openEngine() (*stencil.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	storage, err := openStorage(a.config)
	if err != nil {
		return nil, newExitError(ExitCodeError, ErrMsgOpenStorageFailed, err)
	}
	opts := append(engineOptions(a.config, a.logger), stencil.WithStorage(storage))
	engine, err := stencil.NewEngine(opts...)
	if err != nil {
		storage.Close()
		return nil, newExitError(ExitCodeError, ErrMsgOpenStorageFailed, err)
	}
	a.engine = engine
	return engine, nil
}

func (a *app) close() {
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn(ErrMsgStorageFailed, zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
