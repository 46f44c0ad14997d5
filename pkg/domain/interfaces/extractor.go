package interfaces

import "context"

// Extractor unpacks a single archive file
type Extractor interface {
	// Extract unpacks archivePath into destDir, creating destDir if absent
	Extract(ctx context.Context, archivePath, destDir string) error
}
