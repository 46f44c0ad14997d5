package fetch

import (
	"context"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/fsx"
	"github.com/brendondgr/luna25/pkg/utils/logging"
)

type httpFetcher struct {
	httpClient *http.Client
	token      string
}

// HTTPOption configures the HTTP fetcher
type HTTPOption func(*httpFetcher)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(f *httpFetcher) {
		f.httpClient = hc
	}
}

// WithBearerToken sends token as a bearer token with every request
func WithBearerToken(token string) HTTPOption {
	return func(f *httpFetcher) {
		f.token = token
	}
}

// NewHTTP creates a Fetcher for http and https URLs
func NewHTTP(opts ...HTTPOption) interfaces.Fetcher {
	f := &httpFetcher{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url to dest. The body is streamed into a temp file next to
// dest, which replaces dest only after the download completed.
func (f *httpFetcher) Fetch(ctx context.Context, url, dest string) error {
	logger := logging.From(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create download request",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to download file",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.New("unexpected status code for download",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode))
	}

	out, err := fsx.CreateAtomic(dest)
	if err != nil {
		return goerr.Wrap(err, "failed to create download file", goerr.V("dest", dest))
	}
	defer out.Abort()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read response body",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url),
			goerr.V("dest", dest))
	}
	if err := out.Commit(); err != nil {
		return goerr.Wrap(err, "failed to store downloaded file", goerr.V("dest", dest))
	}

	logger.Debug("Downloaded file", "url", url, "dest", dest, "bytes", n)
	return nil
}
