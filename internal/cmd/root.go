package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/config"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/layout"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/pipeline"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/transcribe/client"
)

// NewRootCmd creates the root command for the alchemize CLI
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "alchemize",
		Short:        "Rename, transcribe and sort voice recordings",
		Long:         "Whispering Alchemy - turns device-named voice recordings into named, sorted and journaled notes",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file (default: search "+config.EnvVar+" and the standard locations)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "echo every decision to the console")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewRouteCmd())
	rootCmd.AddCommand(NewTranscribeCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// flagString reads a flag that may be inherited from the root command.
// Subcommands built on their own simply see the zero value.
func flagString(cmd *cobra.Command, name string) string {
	f := cmd.Flag(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func flagBool(cmd *cobra.Command, name string) bool {
	return flagString(cmd, name) == "true"
}

// loadConfig discovers and validates the configuration named by --config.
// Without --config, a layout created by init in an ancestor directory is
// used when none of the standard locations has a file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := flagString(cmd, "config")
	cfg, err := config.Discover(explicit)
	if errors.Is(err, config.ErrNotFound) && explicit == "" {
		if root, findErr := layout.FindRoot("."); findErr == nil {
			cfg, err = config.Load(layout.ConfigPath(root))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagBool(cmd, "verbose") {
		cfg.App.Verbose = true
	}
	return cfg, nil
}

// newLogger opens the day's log file, echoing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*logging.FileLogger, error) {
	logCfg := logging.DefaultConfig()
	if cfg.App.LogDir != "" {
		logCfg.LogDir = cfg.App.LogDir
	}
	logCfg.Component = "pipeline"
	logCfg.Console = cmd.ErrOrStderr()
	logCfg.Verbose = cfg.App.Verbose
	if cfg.App.Verbose {
		logCfg = logCfg.WithMinLevel(logging.LevelDebug)
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return logger, nil
}

// clientFactory builds the transcription backend named by the configuration.
var clientFactory = newClient

// newClient builds the configured transcription backend. The returned func
// releases it.
func newClient(cfg *config.Config, logger logging.Logger) (client.TranscriptionClient, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Transcriber.Backend {
	case config.BackendHTTP:
		asr := client.NewWhisperASRClient(cfg.Transcriber.APIURL,
			client.WithTimeout(time.Duration(cfg.Transcriber.TimeoutSeconds)*time.Second),
		)
		return client.NewRetryClient(asr,
			client.WithRetryCount(cfg.Transcriber.RetryCount),
			client.WithLogger(logger),
		), noop, nil
	case config.BackendNative:
		native, err := client.NewNativeClient(cfg.App.ModelDir)
		if err != nil {
			return nil, noop, err
		}
		return native, native.Close, nil
	default:
		return client.NewExecClient(cfg.App.ModelDir,
			client.WithExecPath(cfg.Transcriber.ExecPath),
			client.WithThreads(cfg.Transcriber.Threads),
		), noop, nil
	}
}

// newPipeline wires the configured transcription backend into a pipeline.
// The returned func releases the backend.
func newPipeline(cfg *config.Config, logger logging.Logger) (*pipeline.Pipeline, func() error, error) {
	noop := func() error { return nil }
	if cfg.App.DisableTranscribe {
		p, err := pipeline.New(cfg, nil, logger)
		return p, noop, err
	}

	c, closeFn, err := clientFactory(cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	tr := transcribe.New(c, cfg.App.Language, cfg.App.WordsModelMode, logger)
	p, err := pipeline.New(cfg, tr, logger)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return p, closeFn, nil
}
