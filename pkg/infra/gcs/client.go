package gcs

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/fsx"
	"github.com/brendondgr/luna25/pkg/utils/logging"
)

// Scheme is the URL scheme of Cloud Storage objects
const Scheme = "gs"

// Client lists and downloads a dataset mirrored to a Cloud Storage bucket
type Client struct {
	storage *storage.Client
}

// New creates a Client. Credentials are resolved by the Cloud Storage
// client unless opts say otherwise.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}
	return &Client{storage: sc}, nil
}

// Close releases the underlying client
func (c *Client) Close() error {
	return c.storage.Close()
}

// IsURL reports whether s is a gs:// URL
func IsURL(s string) bool {
	return strings.HasPrefix(s, Scheme+"://")
}

// ParseURL splits gs://bucket/object into bucket and object name. The object
// name may be empty or a prefix.
func ParseURL(s string) (bucket, object string, err error) {
	if !IsURL(s) {
		return "", "", goerr.New("not a Cloud Storage URL", goerr.V("url", s))
	}
	bucket, object, _ = strings.Cut(strings.TrimPrefix(s, Scheme+"://"), "/")
	if bucket == "" {
		return "", "", goerr.New("Cloud Storage URL has no bucket", goerr.V("url", s))
	}
	return bucket, object, nil
}

// ListRecords lists the objects under the gs://bucket/prefix given as datasetID
func (c *Client) ListRecords(ctx context.Context, datasetID string) ([]model.FileRecord, error) {
	logger := logging.From(ctx)

	bucket, prefix, err := ParseURL(datasetID)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid dataset location",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var records []model.FileRecord
	it := c.storage.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list objects",
				goerr.Tag(types.ErrTagCatalog),
				goerr.V("bucket", bucket),
				goerr.V("prefix", prefix))
		}

		// Only direct children; folder placeholders are skipped
		rel := strings.TrimPrefix(attrs.Name, prefix)
		if rel == "" || strings.Contains(rel, "/") {
			continue
		}
		records = append(records, model.FileRecord{
			Name: path.Base(attrs.Name),
			URL:  Scheme + "://" + bucket + "/" + attrs.Name,
			Size: attrs.Size,
		})
	}

	if len(records) == 0 {
		return nil, goerr.New("no objects found for dataset",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}

	logger.Debug("Listed bucket objects", "bucket", bucket, "prefix", prefix, "files", len(records))
	return records, nil
}

// Fetch downloads the gs:// object url to dest
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	logger := logging.From(ctx)

	bucket, object, err := ParseURL(url)
	if err != nil {
		return goerr.Wrap(err, "invalid Cloud Storage object URL",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}
	if object == "" {
		return goerr.New("Cloud Storage URL names no object",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}

	reader, err := c.storage.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to open object",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}
	defer reader.Close()

	out, err := fsx.CreateAtomic(dest)
	if err != nil {
		return goerr.Wrap(err, "failed to create download file", goerr.V("dest", dest))
	}
	defer out.Abort()

	n, err := io.Copy(out, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to read object",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url),
			goerr.V("dest", dest))
	}
	if err := out.Commit(); err != nil {
		return goerr.Wrap(err, "failed to store downloaded file", goerr.V("dest", dest))
	}

	logger.Debug("Downloaded object", "url", url, "dest", dest, "bytes", n)
	return nil
}
