package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/usecase"
	"github.com/brendondgr/luna25/pkg/utils/testutil"
)

func TestNormalize_Flatten(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "data", "images")
	extracted := filepath.Join(root, "extracted", "images")

	testutil.WriteFile(t, filepath.Join(canonical, "part001"), []byte("stale"))
	testutil.WriteFile(t, filepath.Join(canonical, "old", "leftover"), []byte("stale"))
	for _, name := range []string{"a", "b", "c"} {
		testutil.WriteFile(t, filepath.Join(extracted, "luna25_images", name), []byte(name))
	}

	reporter, buf := testutil.NewReporter()
	n := usecase.NewNormalizer(reporter)
	gt.NoError(t, n.Normalize(ctx, canonical, extracted, "luna25_images")).Required()

	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"a", "b", "c"})
	gt.Equal(t, string(testutil.ReadFile(t, filepath.Join(canonical, "b"))), "b")
	gt.A(t, testutil.Entries(t, extracted)).Length(0)

	gt.String(t, buf.String()).
		Contains("Cleaning Up...").
		Contains("Moving Files...").
		Contains("Moving Items in Subdirectories to Main Data Directory...").
		Contains("Removing Subdirectories...")
}

func TestNormalize_MovesSiblings(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "nodules")
	extracted := filepath.Join(root, "extracted")

	testutil.WriteFile(t, filepath.Join(extracted, "luna25_nodule_blocks", "n1.npy"), []byte("n1"))
	testutil.WriteFile(t, filepath.Join(extracted, "luna25_nodule_blocks", "deep", "n2.npy"), []byte("n2"))
	testutil.WriteFile(t, filepath.Join(extracted, "README.txt"), []byte("readme"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	gt.NoError(t, n.Normalize(ctx, canonical, extracted, "luna25_nodule_blocks")).Required()

	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"README.txt", "deep", "n1.npy"})
	gt.F(t, filepath.Join(canonical, "deep", "n2.npy")).Exists()
	gt.F(t, filepath.Join(canonical, "luna25_nodule_blocks")).NotExists()
}

func TestNormalize_InnerEntryNamedLikeSubdir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "images")
	extracted := filepath.Join(root, "extracted")

	testutil.WriteFile(t, filepath.Join(extracted, "luna25_images", "luna25_images"), []byte("same name"))
	testutil.WriteFile(t, filepath.Join(extracted, "luna25_images", "x"), []byte("x"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	gt.NoError(t, n.Normalize(ctx, canonical, extracted, "luna25_images")).Required()

	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"luna25_images", "x"})
	gt.Equal(t, string(testutil.ReadFile(t, filepath.Join(canonical, "luna25_images"))), "same name")
}

func TestNormalize_CreatesMissingCanonical(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "does", "not", "exist")
	extracted := filepath.Join(root, "extracted")

	testutil.WriteFile(t, filepath.Join(extracted, "luna25_images", "a"), []byte("a"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	gt.NoError(t, n.Normalize(ctx, canonical, extracted, "luna25_images")).Required()
	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"a"})
}

func TestNormalize_StructureMismatch(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "images")
	extracted := filepath.Join(root, "extracted")

	testutil.WriteFile(t, filepath.Join(canonical, "keep"), []byte("keep"))
	testutil.WriteFile(t, filepath.Join(extracted, "other_name", "a"), []byte("a"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	err := n.Normalize(ctx, canonical, extracted, "luna25_images")
	gt.Error(t, err).Contains("expected subdirectory not found")
	gt.True(t, goerr.HasTag(err, types.ErrTagStructureMismatch))

	var gerr *goerr.Error
	gt.True(t, errors.As(err, &gerr))
	gt.Value(t, gerr.Values()["expected"]).Equal(any("luna25_images"))
	gt.Value(t, gerr.Values()["found"]).Equal(any([]string{"other_name"}))

	// Nothing was modified
	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"keep"})
	gt.A(t, testutil.Entries(t, extracted)).Equal([]string{"other_name"})
}

func TestNormalize_SubdirIsFile(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	extracted := filepath.Join(root, "extracted")
	testutil.WriteFile(t, filepath.Join(extracted, "luna25_images"), []byte("not a directory"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	err := n.Normalize(ctx, filepath.Join(root, "images"), extracted, "luna25_images")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagStructureMismatch))
}

func TestNormalize_Collision(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	canonical := filepath.Join(root, "images")
	extracted := filepath.Join(root, "extracted")

	testutil.WriteFile(t, filepath.Join(canonical, "keep"), []byte("keep"))
	testutil.WriteFile(t, filepath.Join(extracted, "luna25_images", "meta.json"), []byte("inner"))
	testutil.WriteFile(t, filepath.Join(extracted, "meta.json"), []byte("outer"))

	n := usecase.NewNormalizer(testutil.DiscardReporter())
	err := n.Normalize(ctx, canonical, extracted, "luna25_images")
	gt.Error(t, err).Contains("collides")
	gt.True(t, goerr.HasTag(err, types.ErrTagStructureMismatch))
	gt.A(t, testutil.Entries(t, canonical)).Equal([]string{"keep"})
}

func TestNormalize_MissingExtractedDir(t *testing.T) {
	root := t.TempDir()
	n := usecase.NewNormalizer(testutil.DiscardReporter())
	err := n.Normalize(context.Background(), filepath.Join(root, "images"), filepath.Join(root, "none"), "luna25_images")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagStructureMismatch))
}
