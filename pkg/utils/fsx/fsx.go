package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Replaceable so tests can simulate EXDEV
var renameFunc = os.Rename

// CrossDeviceError is returned when a rename crosses filesystems. Moves are
// never emulated with copy+delete; data and extraction roots must share a
// filesystem.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cannot move %q to %q across filesystems; keep the data and extraction directories on the same filesystem: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and turns EXDEV into a CrossDeviceError
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// EntryNames returns the sorted names of the entries directly inside dir
func EntryNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// RemoveContents removes every entry directly inside dir and keeps dir itself.
// A missing dir is created.
func RemoveContents(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dir))
	}

	names, err := EntryNames(dir)
	if err != nil {
		return goerr.Wrap(err, "failed to read directory", goerr.V("dir", dir))
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.RemoveAll(path); err != nil {
			return goerr.Wrap(err, "failed to remove entry", goerr.V("path", path))
		}
	}
	return nil
}

// MoveContents moves every entry directly inside src into dst with rename.
// dst is created when absent. Entries are moved in name order.
func MoveContents(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return goerr.Wrap(err, "failed to create directory", goerr.V("dir", dst))
	}

	names, err := EntryNames(src)
	if err != nil {
		return goerr.Wrap(err, "failed to read directory", goerr.V("dir", src))
	}
	for _, name := range names {
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)
		if err := Rename(from, to); err != nil {
			return goerr.Wrap(err, "failed to move entry",
				goerr.V("from", from),
				goerr.V("to", to))
		}
	}
	return nil
}

// AtomicFile is a temp file in the destination's directory that replaces
// the destination only on Commit. Readers never observe a half-written file.
type AtomicFile struct {
	*os.File
	dst      string
	finished bool
}

// CreateAtomic creates the temp file for dst. The parent directory of dst
// must exist.
func CreateAtomic(dst string) (*AtomicFile, error) {
	dir, name := filepath.Split(dst)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create temporary file", goerr.V("dst", dst))
	}
	return &AtomicFile{File: f, dst: dst}, nil
}

// Commit flushes the temp file and renames it over the destination
func (f *AtomicFile) Commit() error {
	if f.finished {
		return goerr.New("atomic file already finished", goerr.V("dst", f.dst))
	}
	f.finished = true

	tmpName := f.File.Name()
	if err := f.File.Sync(); err != nil {
		_ = f.File.Close()
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to sync temporary file", goerr.V("dst", f.dst))
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("dst", f.dst))
	}
	if err := Rename(tmpName, f.dst); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to rename temporary file", goerr.V("dst", f.dst))
	}
	return nil
}

// Abort discards the temp file. It does nothing after Commit.
func (f *AtomicFile) Abort() {
	if f.finished {
		return
	}
	f.finished = true
	_ = f.File.Close()
	_ = os.Remove(f.File.Name())
}

// IsTempName reports whether name looks like an AtomicFile temp file
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp-")
}
