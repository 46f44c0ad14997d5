package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/infra/archive"
	"github.com/brendondgr/luna25/pkg/infra/catalog"
	"github.com/brendondgr/luna25/pkg/infra/fetch"
	"github.com/brendondgr/luna25/pkg/infra/gcs"
	"github.com/brendondgr/luna25/pkg/infra/zenodo"
	"github.com/brendondgr/luna25/pkg/usecase"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// newPrepare wires the use case from configuration. The returned function
// releases clients opened for it.
func newPrepare(ctx context.Context, cfg *settings, reporter *report.Reporter) (interfaces.PrepareUseCase, func(), error) {
	layout, err := cfg.layout.Build()
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.dataset.Policy()
	if err != nil {
		return nil, nil, err
	}

	zenodoOpts := []zenodo.Option{}
	fetchOpts := []fetch.HTTPOption{}
	if cfg.zenodo.Token != "" {
		zenodoOpts = append(zenodoOpts, zenodo.WithToken(cfg.zenodo.Token))
		fetchOpts = append(fetchOpts, fetch.WithBearerToken(cfg.zenodo.Token))
	}
	fetcher := fetch.NewRouter(fetch.NewHTTP(fetchOpts...))
	cleanup := func() {}

	// The Cloud Storage client is only created for a bucket mirror
	var bucket interfaces.CatalogLister
	if catalog.IsBucketDataset(cfg.dataset.Images) || catalog.IsBucketDataset(cfg.dataset.Annotations) {
		client, err := gcs.New(ctx)
		if err != nil {
			return nil, nil, err
		}
		bucket = client
		fetcher.Handle(gcs.Scheme, client)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logging.From(ctx).Warn("Failed to close Cloud Storage client", "error", err)
			}
		}
	}

	lister := catalog.NewRouter(zenodo.NewClient(cfg.zenodo.URL, zenodoOpts...), bucket)

	opts := []usecase.PrepareOption{
		usecase.WithLayout(layout),
		usecase.WithImageLimit(cfg.dataset.ImageLimit),
		usecase.WithDatasets(cfg.dataset.Images, cfg.dataset.Annotations),
		usecase.WithFetchPolicy(policy),
	}
	if notifier := cfg.slack.Notifier(); notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
	}

	return usecase.NewPrepare(lister, fetcher, archive.NewZip(), reporter, opts...), cleanup, nil
}

func runPrepare(ctx context.Context, cfg *settings, reporter *report.Reporter, extractOnly bool) error {
	uc, cleanup, err := newPrepare(ctx, cfg, reporter)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := uc.Run(ctx, interfaces.PrepareInput{ExtractOnly: extractOnly})
	if err != nil {
		return goerr.Wrap(err, "dataset preparation failed")
	}

	logger := logging.From(ctx)
	for _, d := range result.Downloads {
		for _, f := range d.Failed {
			logger.Warn("File was not downloaded",
				slog.String("category", string(d.Category)),
				slog.String("name", f.Name),
				slog.Any("error", f.Err),
			)
		}
	}
	return nil
}

func cmdCatalog(cfg *settings, reporter func() *report.Reporter) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "List the files that would be downloaded, without downloading them",
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := newPrepare(ctx, cfg, reporter())
			if err != nil {
				return err
			}
			defer cleanup()

			sets, err := uc.Plan(ctx)
			if err != nil {
				return err
			}

			rep := reporter()
			for _, set := range sets {
				var total int64
				for _, r := range set.Records {
					rep.Plain("%s\t%s\t%d", set.Category, r.Name, r.Size)
					total += r.Size
				}
				rep.Plain("# %s: %d files, %s", set.Category, len(set.Records), humanBytes(total))
			}
			return nil
		},
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
