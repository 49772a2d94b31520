package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iso2god-desktop/frontend"
	"iso2god-desktop/internal/bootstrap"
	"iso2god-desktop/internal/config"
	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/logging"
)

// cliContext carries persistent flag values to subcommands.
type cliContext struct {
	configPath string
	logLevel   string
}

func (c *cliContext) store() *config.TOMLStore {
	path := strings.TrimSpace(c.configPath)
	if path == "" {
		path = config.DefaultPath()
	}
	return config.NewTOMLStore(path)
}

func (c *cliContext) settings() (domain.Settings, error) {
	settings, err := c.store().Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (c *cliContext) logger(settings domain.Settings) (*zap.Logger, error) {
	return logging.NewFromSettings(settings, c.logLevel)
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "iso2god-desktop",
		Short:         "Convert Xbox 360 disc images to Games on Demand packages",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesktop(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Settings file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	return rootCmd
}

func runDesktop(ctx *cliContext) error {
	settings, err := ctx.settings()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	assets, err := frontend.Assets()
	if err != nil {
		return fmt.Errorf("load frontend assets: %w", err)
	}
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: ctx.store().Path(),
		Logger:     logger,
		Assets:     assets,
	})
	if err != nil {
		return fmt.Errorf("bootstrap app: %w", err)
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}
	return nil
}
