package interfaces

import (
	"context"

	"github.com/brendondgr/luna25/pkg/domain/model"
)

// PrepareInput controls one pipeline run
type PrepareInput struct {
	// ExtractOnly skips catalog listing and downloads and works on local files
	ExtractOnly bool
}

// PrepareUseCase runs the download and extraction pipeline
type PrepareUseCase interface {
	// Run executes the pipeline
	Run(ctx context.Context, input PrepareInput) (*model.PrepareResult, error)

	// Plan lists both catalogs and returns the routed download sets without fetching anything
	Plan(ctx context.Context) ([]model.DownloadSet, error)
}
