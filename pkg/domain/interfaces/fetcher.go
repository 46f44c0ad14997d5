package interfaces

import "context"

// Fetcher retrieves a remote file to a local path
type Fetcher interface {
	// Fetch writes the content at url to dest. dest must not be left behind
	// half-written when the fetch fails.
	Fetch(ctx context.Context, url, dest string) error
}
