package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ad-lifecycle-engine/internal/ads"
	"ad-lifecycle-engine/internal/config"
	"ad-lifecycle-engine/internal/engine"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logFile    string
		verbose    bool
	)

	root := &cobra.Command{
		Use:     "adbot",
		Short:   "manages classifieds ads from declarative definition files",
		Version: version,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := "info"
			if verbose {
				level = "debug"
			}
			config.SetupLogging(level, logFile)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the config YAML or JSON file")
	root.PersistentFlags().StringVar(&logFile, "logfile", "adbot.log", "path to the logfile (empty disables file logging)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enables verbose output")

	root.AddCommand(
		newVerifyCmd(&configPath),
		newPublishCmd(&configPath),
		newDeleteCmd(&configPath),
		newDownloadCmd(&configPath),
	)
	return root
}

func buildEngine(configPath string) (*engine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, noBrowser{})
}

func newVerifyCmd(configPath *string) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verifies the configuration files",
		RunE: func(_ *cobra.Command, _ []string) error {
			mode, err := ads.ParseMode(selector)
			if err != nil {
				return err
			}
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			return eng.Verify(mode)
		},
	}
	cmd.Flags().StringVar(&selector, "ads", "due", "which ads to verify: all|due|new|<id(s)>")
	return cmd
}

func newPublishCmd(configPath *string) *cobra.Command {
	var (
		selector string
		force    bool
		keepOld  bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "(re-)publishes ads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if force {
				selector = "all"
			}
			mode, err := ads.ParseMode(selector)
			if err != nil {
				return err
			}
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			eng.KeepOld = keepOld
			return eng.Publish(cmd.Context(), mode)
		},
	}
	cmd.Flags().StringVar(&selector, "ads", "due", "which ads to (re-)publish: all|due|new")
	cmd.Flags().BoolVar(&force, "force", false, "alias for --ads=all")
	cmd.Flags().BoolVar(&keepOld, "keep-old", false, "don't delete old ads on republication")
	return cmd
}

func newDeleteCmd(configPath *string) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "deletes ads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := ads.ParseMode(selector)
			if err != nil {
				return err
			}
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			return eng.Delete(cmd.Context(), mode)
		},
	}
	cmd.Flags().StringVar(&selector, "ads", "due", "which ads to delete: all|due|new|<id(s)>")
	return cmd
}

func newDownloadCmd(configPath *string) *cobra.Command {
	var selector string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "downloads one or multiple ads",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := ads.ParseMode(selector)
			if err != nil || mode.Kind == ads.ModeDue {
				log.Warn().Str("selector", selector).Msg(`selector not supported for download, defaulting to "new"`)
				mode = ads.Mode{Kind: ads.ModeNew}
			}
			eng, err := buildEngine(*configPath)
			if err != nil {
				return err
			}
			return eng.Download(cmd.Context(), mode)
		},
	}
	cmd.Flags().StringVar(&selector, "ads", "new", "which ads to download: all|new|<id(s)>")
	return cmd
}

// noBrowser is the driver wired into the plain binary. All marketplace
// actions fail fatally; verify still works end to end.
type noBrowser struct{}

var errNoBrowser = errors.New("no browser driver is wired into this build")

func (noBrowser) Publish(context.Context, *ads.ResolvedDefinition) (int64, error) {
	return 0, &engine.ActionError{Op: "publish", Fatal: true, Err: errNoBrowser}
}

func (noBrowser) Delete(context.Context, *ads.ResolvedDefinition) (bool, error) {
	return false, &engine.ActionError{Op: "delete", Fatal: true, Err: errNoBrowser}
}

func (noBrowser) Extract(context.Context, int64) (ads.RawDefinition, error) {
	return nil, &engine.ActionError{Op: "download", Fatal: true, Err: errNoBrowser}
}

func (noBrowser) OwnAds(context.Context) ([]int64, error) {
	return nil, &engine.ActionError{Op: "download", Fatal: true, Err: errNoBrowser}
}
