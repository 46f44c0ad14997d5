package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/logging"
)

type zipExtractor struct{}

// NewZip creates an Extractor for zip archives
func NewZip() interfaces.Extractor {
	return &zipExtractor{}
}

// Extract unpacks every entry of the zip archive into destDir
func (x *zipExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	logger := logging.From(ctx)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create destination directory",
			goerr.Tag(types.ErrTagExtraction),
			goerr.V("dest", destDir))
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive",
			goerr.Tag(types.ErrTagExtraction),
			goerr.V("archive", archivePath))
	}
	defer reader.Close()

	var totalSize uint64
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "extraction interrupted",
				goerr.Tag(types.ErrTagExtraction),
				goerr.V("archive", archivePath))
		}

		if err := extractFile(file, destDir); err != nil {
			return goerr.Wrap(err, "failed to extract entry",
				goerr.Tag(types.ErrTagExtraction),
				goerr.V("archive", archivePath),
				goerr.V("entry", file.Name))
		}
		totalSize += file.UncompressedSize64
	}

	logger.Debug("Extracted archive",
		"archive", archivePath,
		"dest", destDir,
		"entries", len(reader.File),
		"total_size_bytes", totalSize,
	)
	return nil
}

// extractFile extracts a single entry into destDir
func extractFile(file *zip.File, destDir string) error {
	// Reject entries escaping destDir
	destPath := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return goerr.New("invalid file path in archive",
			goerr.V("file", file.Name),
			goerr.V("dest", destPath))
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return goerr.Wrap(err, "failed to create parent directories", goerr.V("dir", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open entry")
	}
	defer rc.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create destination file", goerr.V("path", destPath))
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to write entry", goerr.V("path", destPath))
	}
	if err := out.Close(); err != nil {
		return goerr.Wrap(err, "failed to close destination file", goerr.V("path", destPath))
	}
	return nil
}
