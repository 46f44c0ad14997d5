package model

import (
	"path/filepath"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Default layout values of the LUNA25 archives
const (
	DefaultDataRoot     = "data"
	DefaultExtractRoot  = "extracted"
	DefaultCombinedName = "combined.zip"
	DefaultImagesSubdir = "luna25_images"
	DefaultNoduleSubdir = "luna25_nodule_blocks"
)

// Layout describes where files live on disk
type Layout struct {
	DataRoot     string              // Root of the canonical and downloaded files
	ExtractRoot  string              // Root of the transient extraction targets
	CombinedName string              // File name of the reassembled archive inside a data dir
	Subdirs      map[Category]string // Top-level directory each category's archive unpacks into
}

// DefaultLayout returns the layout of the published LUNA25 archives
func DefaultLayout() Layout {
	return Layout{
		DataRoot:     DefaultDataRoot,
		ExtractRoot:  DefaultExtractRoot,
		CombinedName: DefaultCombinedName,
		Subdirs: map[Category]string{
			CategoryImages:  DefaultImagesSubdir,
			CategoryNodules: DefaultNoduleSubdir,
		},
	}
}

// DataDir returns the canonical directory of a category
func (l Layout) DataDir(c Category) string {
	return filepath.Join(l.DataRoot, string(c))
}

// ExtractDir returns the extraction target of a category
func (l Layout) ExtractDir(c Category) string {
	return filepath.Join(l.ExtractRoot, string(c))
}

// NestedSubdir returns the archive's top-level directory name for a category
func (l Layout) NestedSubdir(c Category) string {
	return l.Subdirs[c]
}

// Validate checks that the layout is usable
func (l Layout) Validate() error {
	if l.DataRoot == "" {
		return goerr.New("data root is empty", goerr.Tag(types.ErrTagConfig))
	}
	if l.ExtractRoot == "" {
		return goerr.New("extract root is empty", goerr.Tag(types.ErrTagConfig))
	}
	if filepath.Clean(l.DataRoot) == filepath.Clean(l.ExtractRoot) {
		return goerr.New("data root and extract root must differ",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("root", l.DataRoot))
	}
	if l.CombinedName == "" || filepath.Base(l.CombinedName) != l.CombinedName {
		return goerr.New("combined archive name must be a plain file name",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("name", l.CombinedName))
	}
	for _, c := range []Category{CategoryImages, CategoryNodules} {
		name := l.Subdirs[c]
		if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
			return goerr.New("nested subdirectory name must be a plain directory name",
				goerr.Tag(types.ErrTagConfig),
				goerr.V("category", c),
				goerr.V("name", name))
		}
	}
	return nil
}
