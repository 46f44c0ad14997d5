package interfaces

import (
	"context"

	"github.com/brendondgr/luna25/pkg/domain/model"
)

// Notifier announces the end of a pipeline run
type Notifier interface {
	// Notify is called once per run. runErr is nil when the run succeeded.
	Notify(ctx context.Context, result *model.PrepareResult, runErr error) error
}
