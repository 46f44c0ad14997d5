package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/fsx"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// Normalizer flattens a freshly extracted archive into a canonical directory
type Normalizer struct {
	reporter *report.Reporter
}

// NewNormalizer creates a Normalizer
func NewNormalizer(reporter *report.Reporter) *Normalizer {
	return &Normalizer{reporter: reporter}
}

// Normalize replaces the contents of canonicalDir with the payload of
// extractedDir. extractedDir is expected to hold a top-level directory named
// knownSubdir whose entries are the payload; those entries end up directly
// inside canonicalDir and knownSubdir itself is removed. Sibling entries of
// knownSubdir are moved along unchanged.
//
// The layout of extractedDir is checked before anything is modified. On a
// StructureMismatch error canonicalDir and extractedDir are left as they were.
func (n *Normalizer) Normalize(ctx context.Context, canonicalDir, extractedDir, knownSubdir string) error {
	logger := logging.From(ctx)

	if err := checkExtractedLayout(extractedDir, knownSubdir); err != nil {
		return err
	}

	n.reporter.Step(ctx, "Cleaning Up...")
	if err := fsx.RemoveContents(canonicalDir); err != nil {
		return goerr.Wrap(err, "failed to clear canonical directory", goerr.V("dir", canonicalDir))
	}

	n.reporter.Step(ctx, "Moving Files...")
	if err := fsx.MoveContents(extractedDir, canonicalDir); err != nil {
		return goerr.Wrap(err, "failed to move extracted entries", goerr.V("dir", canonicalDir))
	}

	// Park the nested directory under a private name first, so an inner
	// entry named like the directory itself can take its place.
	nested := filepath.Join(canonicalDir, knownSubdir)
	parked, err := os.MkdirTemp(canonicalDir, "."+knownSubdir+".flatten-")
	if err != nil {
		return goerr.Wrap(err, "failed to prepare flattening", goerr.V("dir", canonicalDir))
	}
	if err := os.Remove(parked); err != nil {
		return goerr.Wrap(err, "failed to prepare flattening", goerr.V("dir", parked))
	}
	if err := fsx.Rename(nested, parked); err != nil {
		return goerr.Wrap(err, "failed to park nested directory", goerr.V("dir", nested))
	}

	n.reporter.Step(ctx, "Moving Items in Subdirectories to Main Data Directory...")
	if err := fsx.MoveContents(parked, canonicalDir); err != nil {
		return goerr.Wrap(err, "failed to flatten nested directory", goerr.V("dir", nested))
	}

	n.reporter.Step(ctx, "Removing Subdirectories...")
	if err := os.Remove(parked); err != nil {
		return goerr.Wrap(err, "failed to remove nested directory", goerr.V("dir", nested))
	}

	logger.Debug("Normalized directory",
		"canonical_dir", canonicalDir,
		"extracted_dir", extractedDir,
		"subdir", knownSubdir,
	)
	return nil
}

// checkExtractedLayout verifies that extractedDir holds knownSubdir as a
// directory and that flattening it cannot collide with a sibling entry.
func checkExtractedLayout(extractedDir, knownSubdir string) error {
	found, err := fsx.EntryNames(extractedDir)
	if err != nil {
		return goerr.Wrap(err, "failed to read extracted directory",
			goerr.Tag(types.ErrTagStructureMismatch),
			goerr.V("dir", extractedDir),
			goerr.V("expected", knownSubdir))
	}

	info, err := os.Stat(filepath.Join(extractedDir, knownSubdir))
	if err != nil || !info.IsDir() {
		return goerr.New("expected subdirectory not found in extracted archive",
			goerr.Tag(types.ErrTagStructureMismatch),
			goerr.V("dir", extractedDir),
			goerr.V("expected", knownSubdir),
			goerr.V("found", found))
	}

	siblings := make(map[string]struct{}, len(found))
	for _, name := range found {
		if name != knownSubdir {
			siblings[name] = struct{}{}
		}
	}

	inner, err := fsx.EntryNames(filepath.Join(extractedDir, knownSubdir))
	if err != nil {
		return goerr.Wrap(err, "failed to read expected subdirectory",
			goerr.Tag(types.ErrTagStructureMismatch),
			goerr.V("dir", extractedDir),
			goerr.V("expected", knownSubdir))
	}
	for _, name := range inner {
		if _, ok := siblings[name]; ok {
			return goerr.New("payload entry collides with a top-level entry",
				goerr.Tag(types.ErrTagStructureMismatch),
				goerr.V("dir", extractedDir),
				goerr.V("expected", knownSubdir),
				goerr.V("entry", name),
				goerr.V("found", found))
		}
	}

	return nil
}
