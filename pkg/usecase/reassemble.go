package usecase

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/fsx"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// Reassembler joins the part files of a split archive into one archive
type Reassembler struct {
	combinedName string
	reporter     *report.Reporter
}

// NewReassembler creates a Reassembler writing to combinedName inside the source directory
func NewReassembler(combinedName string, reporter *report.Reporter) *Reassembler {
	return &Reassembler{
		combinedName: combinedName,
		reporter:     reporter,
	}
}

// ListParts returns the part files inside sourceDir: regular files other
// than the combined archive and leftover temp files, sorted by name.
func ListParts(sourceDir, combinedName string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list part files",
			goerr.Tag(types.ErrTagReassembly),
			goerr.V("dir", sourceDir))
	}

	var parts []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || name == combinedName || fsx.IsTempName(name) {
			continue
		}
		parts = append(parts, name)
	}
	slices.Sort(parts)
	return parts, nil
}

// Reassemble concatenates the named parts of sourceDir in lexicographic name
// order and returns the path of the combined archive. The order of parts as
// given does not matter. Any prior combined archive is replaced only once
// the new one is complete.
func (r *Reassembler) Reassemble(ctx context.Context, parts []string, sourceDir string) (string, error) {
	logger := logging.From(ctx)

	if len(parts) == 0 {
		return "", goerr.New("no part files to reassemble",
			goerr.Tag(types.ErrTagReassembly),
			goerr.V("dir", sourceDir))
	}

	r.reporter.Step(ctx, "Now Sorting Files...")
	sorted := slices.Clone(parts)
	slices.Sort(sorted)

	combinedPath := filepath.Join(sourceDir, r.combinedName)
	out, err := fsx.CreateAtomic(combinedPath)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create combined archive",
			goerr.Tag(types.ErrTagReassembly),
			goerr.V("path", combinedPath))
	}
	defer out.Abort()

	r.reporter.Step(ctx, "Concatenating Files, Please Wait...")
	var total int64
	for _, part := range sorted {
		if err := ctx.Err(); err != nil {
			return "", goerr.Wrap(err, "reassembly interrupted", goerr.Tag(types.ErrTagReassembly))
		}

		n, err := appendPart(out, filepath.Join(sourceDir, part))
		if err != nil {
			return "", goerr.Wrap(err, "failed to append part file",
				goerr.Tag(types.ErrTagReassembly),
				goerr.V("part", part),
				goerr.V("dir", sourceDir))
		}
		total += n
		logger.Debug("Appended part file", "part", part, "bytes", n)
	}

	if err := out.Commit(); err != nil {
		return "", goerr.Wrap(err, "failed to write combined archive",
			goerr.Tag(types.ErrTagReassembly),
			goerr.V("path", combinedPath))
	}

	logger.Debug("Reassembled archive",
		"path", combinedPath,
		"parts", len(sorted),
		"bytes", total,
	)
	return combinedPath, nil
}

func appendPart(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(w, f)
}
