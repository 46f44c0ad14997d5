package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/cli/config"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// settings collects every configuration struct shared by the commands
type settings struct {
	logger  config.Logger
	file    config.ConfigFile
	layout  config.Layout
	dataset config.Dataset
	zenodo  config.Zenodo
	slack   config.Slack
	sentry  config.Sentry
}

func (s *settings) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, s.logger.Flags()...)
	flags = append(flags, s.file.Flags()...)
	flags = append(flags, s.layout.Flags()...)
	flags = append(flags, s.dataset.Flags()...)
	flags = append(flags, s.zenodo.Flags()...)
	flags = append(flags, s.slack.Flags()...)
	flags = append(flags, s.sentry.Flags()...)
	return flags
}

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout)
}

func run(ctx context.Context, args []string, w io.Writer) error {
	var (
		cfg      settings
		logger   *slog.Logger
		reporter *report.Reporter
	)

	app := &cli.Command{
		Name:    "luna25",
		Usage:   "Download and prepare the LUNA25 dataset",
		Version: types.Version,
		Flags:   append(cfg.flags(), extractOnlyFlag()),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if cfg.file.Path != "" {
				file, err := config.LoadFile(cfg.file.Path)
				if err != nil {
					return nil, err
				}
				file.Apply(c, config.Targets{
					Logger:  &cfg.logger,
					Layout:  &cfg.layout,
					Dataset: &cfg.dataset,
					Zenodo:  &cfg.zenodo,
					Slack:   &cfg.slack,
					Sentry:  &cfg.sentry,
				})
			}

			var err error
			logger, err = cfg.logger.Configure(w, cfg.zenodo.Token, cfg.slack.WebhookURL, cfg.sentry.DSN)
			if err != nil {
				return nil, err
			}
			slog.SetDefault(logger)

			if err := cfg.sentry.Configure(); err != nil {
				return nil, err
			}

			reporter = report.New(logger, report.WithWriter(w), report.WithColor(cfg.logger.Color && !cfg.logger.JSON))

			logger.Debug("Configuration loaded",
				"layout", cfg.layout,
				"dataset", cfg.dataset,
				"zenodo", cfg.zenodo,
				"slack", cfg.slack,
			)
			return logging.With(ctx, logger), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if reporter != nil {
				return reporter.Close()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runPrepare(ctx, &cfg, reporter, c.Bool("extract-only"))
		},
		Commands: []*cli.Command{
			cmdCatalog(&cfg, func() *report.Reporter { return reporter }),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		cfg.sentry.Capture(err)
		return err
	}

	return nil
}

func extractOnlyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "extract-only",
		Usage:   "Skip downloads and extract the part files already on disk",
		Sources: cli.EnvVars("LUNA25_EXTRACT_ONLY"),
	}
}
