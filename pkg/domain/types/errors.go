package types

import "github.com/m-mizutani/goerr/v2"

// Error tags categorize failures so the CLI can report which step broke.
var (
	// ErrTagTransientFetch marks a single file download failure
	ErrTagTransientFetch = goerr.NewTag("transient_fetch")

	// ErrTagReassembly marks a missing or unreadable part file, or a failed write of the combined archive
	ErrTagReassembly = goerr.NewTag("reassembly")

	// ErrTagExtraction marks a corrupt or unrecognized archive
	ErrTagExtraction = goerr.NewTag("extraction")

	// ErrTagStructureMismatch marks an extracted layout without the expected nested subdirectory
	ErrTagStructureMismatch = goerr.NewTag("structure_mismatch")

	// ErrTagCatalog marks a failed catalog lookup
	ErrTagCatalog = goerr.NewTag("catalog")

	// ErrTagConfig marks invalid configuration
	ErrTagConfig = goerr.NewTag("config")
)
