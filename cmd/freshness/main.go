package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryptellation/freshness/pkg/check"
	"github.com/cryptellation/freshness/pkg/config"
	"github.com/cryptellation/freshness/pkg/gate"
	"github.com/cryptellation/freshness/pkg/logging"
	"github.com/cryptellation/freshness/pkg/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes, stable for CI pipelines.
const (
	exitSuccess         = 0
	exitPolicyViolation = 1
	exitInvalidConfig   = 2
	exitRuntimeError    = 4
)

type options struct {
	configPath    string
	inventoryPath string
	versionLabel  string
	logLevel      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logging.Sync()

	code := exitCode(err)
	if err != nil && code != exitPolicyViolation {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "freshness",
		Short:         "Freshness reports outdated dependencies and fails development builds that use them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &config.ConfigurationError{Field: "flags", Err: err}
	})

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newCheckCmd(opts), newClassifyCmd(opts))
	return rootCmd
}

func newCheckCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the inventory snapshot against the freshness policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if opts.inventoryPath != "" {
				cfg.Inventory.Path = opts.inventoryPath
			}
			if opts.versionLabel != "" {
				cfg.Build.VersionLabel = opts.versionLabel
			}

			c, err := check.New(cfg)
			if err != nil {
				return err
			}
			c.SetOutput(cmd.OutOrStdout())
			return c.RunWithLogging(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&opts.inventoryPath, "inventory", "i", "", "Path to the inventory snapshot (overrides inventory.path)")
	cmd.Flags().StringVar(&opts.versionLabel, "version-label", "", "Version label of the build (overrides build.version_label)")
	return cmd
}

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <version>...",
		Short: "Print whether each version is a release or a pre-release",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			classifier, err := version.NewClassifier(version.Options{
				Qualifiers:     cfg.PreRelease.Qualifiers,
				VendorPatterns: cfg.PreRelease.VendorPatterns,
				StrictSemver:   cfg.PreRelease.Semver,
			})
			if err != nil {
				return &config.ConfigurationError{Field: "prerelease", Err: err}
			}
			for _, v := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v, classifier.Classify(v))
			}
			return nil
		},
	}
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := logging.Init(cfg.Logging.Level); err != nil {
		return nil, &config.ConfigurationError{Field: "logging.level", Err: err}
	}
	logging.L().Debug("Configuration loaded", zap.String("path", opts.configPath))
	return cfg, nil
}

func exitCode(err error) int {
	var cfgErr *config.ConfigurationError
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, gate.ErrPolicyViolation):
		return exitPolicyViolation
	case errors.As(err, &cfgErr):
		return exitInvalidConfig
	default:
		return exitRuntimeError
	}
}
