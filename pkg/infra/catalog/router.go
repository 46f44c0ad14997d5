package catalog

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
)

// Router sends a dataset lookup to the lister matching the identifier form:
// gs://bucket/prefix goes to the bucket lister, anything else is treated as a DOI.
type Router struct {
	doi    interfaces.CatalogLister
	bucket interfaces.CatalogLister
}

// NewRouter creates a Router. bucket may be nil when no mirror is configured.
func NewRouter(doi, bucket interfaces.CatalogLister) *Router {
	return &Router{doi: doi, bucket: bucket}
}

// ListRecords implements interfaces.CatalogLister
func (r *Router) ListRecords(ctx context.Context, datasetID string) ([]model.FileRecord, error) {
	if IsBucketDataset(datasetID) {
		if r.bucket == nil {
			return nil, goerr.New("bucket dataset given but no bucket lister is configured",
				goerr.Tag(types.ErrTagCatalog),
				goerr.V("dataset", datasetID))
		}
		return r.bucket.ListRecords(ctx, datasetID)
	}
	return r.doi.ListRecords(ctx, datasetID)
}

// IsBucketDataset reports whether datasetID names a bucket prefix
func IsBucketDataset(datasetID string) bool {
	return strings.HasPrefix(datasetID, "gs://")
}
