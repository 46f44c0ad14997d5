package model

import (
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// FetchPolicy decides what happens when a single download fails
type FetchPolicy string

const (
	// FetchPolicyBestEffort logs the failure and continues with the next record
	FetchPolicyBestEffort FetchPolicy = "best-effort"
	// FetchPolicyFailFast aborts the run on the first failed download
	FetchPolicyFailFast FetchPolicy = "fail-fast"
)

// ParseFetchPolicy converts a flag value to a FetchPolicy
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch FetchPolicy(s) {
	case FetchPolicyBestEffort, FetchPolicyFailFast:
		return FetchPolicy(s), nil
	default:
		return "", goerr.New("unknown fetch policy",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("policy", s))
	}
}

// FetchFailure records a download that failed under the best-effort policy
type FetchFailure struct {
	Name string
	URL  string
	Err  error
}

// DownloadSummary is the outcome of downloading one DownloadSet
type DownloadSummary struct {
	Category Category
	Fetched  []string
	Skipped  []string
	Failed   []FetchFailure
}

// ExtractSummary is the outcome of extracting one category
type ExtractSummary struct {
	Category  Category
	Parts     []string // Part names in concatenation order
	Bytes     int64    // Size of the combined archive
	Directory string   // Canonical directory that was repopulated
}

// PrepareResult is the outcome of one pipeline run
type PrepareResult struct {
	RunID     string
	Downloads []DownloadSummary
	Extracted []ExtractSummary
}

// FailedCount returns the number of downloads that failed across all categories
func (r *PrepareResult) FailedCount() int {
	var n int
	for _, d := range r.Downloads {
		n += len(d.Failed)
	}
	return n
}
