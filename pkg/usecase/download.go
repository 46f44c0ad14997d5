package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// Downloader fetches the records of a DownloadSet into a category directory
type Downloader struct {
	fetcher  interfaces.Fetcher
	policy   model.FetchPolicy
	reporter *report.Reporter
}

// NewDownloader creates a Downloader
func NewDownloader(fetcher interfaces.Fetcher, policy model.FetchPolicy, reporter *report.Reporter) *Downloader {
	if policy == "" {
		policy = model.FetchPolicyBestEffort
	}
	return &Downloader{
		fetcher:  fetcher,
		policy:   policy,
		reporter: reporter,
	}
}

// Download fetches every record of set into dir in set order. A record whose
// file already exists in dir is skipped without contacting the fetcher. A
// record whose name is not a plain file name is never fetched.
// Under the best-effort policy a failed fetch is reported and recorded in the
// summary; under fail-fast it ends the download with an error.
func (d *Downloader) Download(ctx context.Context, set model.DownloadSet, dir string) (*model.DownloadSummary, error) {
	logger := logging.From(ctx)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create download directory",
			goerr.V("category", set.Category),
			goerr.V("dir", dir))
	}

	summary := &model.DownloadSummary{Category: set.Category}
	for _, record := range set.Records {
		if err := ctx.Err(); err != nil {
			return summary, goerr.Wrap(err, "download interrupted", goerr.V("category", set.Category))
		}

		// A record must land directly inside dir
		if !model.IsPlainFileName(record.Name) {
			err := goerr.New("record name is not a plain file name",
				goerr.Tag(types.ErrTagCatalog),
				goerr.V("category", set.Category),
				goerr.V("name", record.Name),
				goerr.V("url", record.URL))
			if d.policy == model.FetchPolicyFailFast {
				return summary, err
			}

			d.reporter.Warn(ctx, "Unsafe record name, not downloading",
				"name", record.Name,
				"url", record.URL,
			)
			summary.Failed = append(summary.Failed, model.FetchFailure{
				Name: record.Name,
				URL:  record.URL,
				Err:  err,
			})
			continue
		}

		dest := filepath.Join(dir, record.Name)
		exists, err := fileExists(dest)
		if err != nil {
			return summary, goerr.Wrap(err, "failed to check download destination", goerr.V("dest", dest))
		}
		if exists {
			d.reporter.Skip(ctx, record.Name)
			summary.Skipped = append(summary.Skipped, record.Name)
			continue
		}

		d.reporter.Step(ctx, "Now Downloading %s...", record.Name)
		if err := d.fetcher.Fetch(ctx, record.URL, dest); err != nil {
			if d.policy == model.FetchPolicyFailFast || ctx.Err() != nil {
				return summary, goerr.Wrap(err, "failed to download file",
					goerr.Tag(types.ErrTagTransientFetch),
					goerr.V("category", set.Category),
					goerr.V("name", record.Name),
					goerr.V("url", record.URL))
			}

			d.reporter.Warn(ctx, "Download failed, continuing",
				"name", record.Name,
				"url", record.URL,
				"error", err,
			)
			summary.Failed = append(summary.Failed, model.FetchFailure{
				Name: record.Name,
				URL:  record.URL,
				Err:  err,
			})
			continue
		}
		summary.Fetched = append(summary.Fetched, record.Name)
	}

	logger.Debug("Downloaded set",
		"category", set.Category,
		"fetched", len(summary.Fetched),
		"skipped", len(summary.Skipped),
		"failed", len(summary.Failed),
	)
	return summary, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}
