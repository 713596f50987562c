package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, app := buildRootCmd()
	if app != nil {
		defer func() { _ = app.Close() }()
	}

	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root, _ := buildRootCmd()
	return root
}

func buildRootCmd() (*cobra.Command, *app) {
	rootCmd := &cobra.Command{
		Use:   "compass",
		Short: "Compass: command-line client for the Navigator image generation backend",
		Long: "compass logs you in to a Navigator backend, queues txt2img jobs, browses models, " +
			"manages your gallery categories and follows job progress over the realtime channel.\n\n" +
			"Configuration is read from $XDG_CONFIG_HOME/compass/config.toml (or COMPASS_CONFIG) " +
			"and COMPASS_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp(os.Stderr)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd, nil
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newWhoamiCmd(app),
		newSettingsCmd(app),
		newModelsCmd(app),
		newGenerateCmd(app),
		newJobsCmd(app),
		newGalleryCmd(app),
		newImagesCmd(app),
		newCategoriesCmd(app),
		newLimitsCmd(app),
		newWatchCmd(app),
	)

	return rootCmd, app
}
