package interfaces

import (
	"context"

	"github.com/brendondgr/luna25/pkg/domain/model"
)

// CatalogLister enumerates downloadable files of a dataset
type CatalogLister interface {
	// ListRecords returns the file records of the dataset identified by datasetID
	ListRecords(ctx context.Context, datasetID string) ([]model.FileRecord, error)
}
