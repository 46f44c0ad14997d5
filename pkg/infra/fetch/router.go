package fetch

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/types"
)

// Router dispatches a fetch to a Fetcher chosen by URL scheme
type Router struct {
	schemes map[string]interfaces.Fetcher
}

// NewRouter creates a Router serving http and https with httpFetcher
func NewRouter(httpFetcher interfaces.Fetcher) *Router {
	return &Router{
		schemes: map[string]interfaces.Fetcher{
			"http":  httpFetcher,
			"https": httpFetcher,
		},
	}
}

// Handle registers fetcher for scheme, replacing any previous one
func (r *Router) Handle(scheme string, fetcher interfaces.Fetcher) *Router {
	r.schemes[scheme] = fetcher
	return r
}

// Fetch implements interfaces.Fetcher
func (r *Router) Fetch(ctx context.Context, url, dest string) error {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return goerr.New("download URL has no scheme",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url))
	}

	fetcher, ok := r.schemes[strings.ToLower(scheme)]
	if !ok {
		return goerr.New("unsupported download URL scheme",
			goerr.Tag(types.ErrTagTransientFetch),
			goerr.V("url", url),
			goerr.V("scheme", scheme))
	}
	return fetcher.Fetch(ctx, url, dest)
}
