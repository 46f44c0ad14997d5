package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/testutil"
)

func TestRun_ExtractOnly(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	extractDir := filepath.Join(root, "extracted")

	images := testutil.BuildZip(t, map[string]string{
		"luna25_images/scan.mha": "scan",
	})
	for i, part := range testutil.Split(images, 2) {
		testutil.WriteFile(t, filepath.Join(dataDir, "images", []string{"p1", "p2"}[i]), part)
	}
	testutil.WriteFile(t, filepath.Join(dataDir, "nodules", "blocks.zip"), testutil.BuildZip(t, map[string]string{
		"luna25_nodule_blocks/b.npy": "block",
	}))

	var out testutil.SafeBuffer
	err := run(context.Background(), []string{
		"luna25",
		"--log-color=false",
		"--data-dir", dataDir,
		"--extract-dir", extractDir,
		"--extract-only",
	}, &out)
	gt.NoError(t, err).Required()

	gt.A(t, testutil.Entries(t, filepath.Join(dataDir, "images"))).Equal([]string{"scan.mha"})
	gt.A(t, testutil.Entries(t, filepath.Join(dataDir, "nodules"))).Equal([]string{"b.npy"})
	gt.String(t, out.String()).
		Contains("-- Extracting Files Only --").
		Match(`\[\d{2}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Concatenating Files, Please Wait\.\.\.`)
}

func TestRun_InvalidFetchPolicy(t *testing.T) {
	var out testutil.SafeBuffer
	err := run(context.Background(), []string{
		"luna25",
		"--data-dir", t.TempDir(),
		"--fetch-policy", "sometimes",
		"--extract-only",
	}, &out)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}

func TestRun_ConfigFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "luna25.toml")
	testutil.WriteFile(t, path, []byte("[data]\ndir = \""+filepath.ToSlash(filepath.Join(root, "missing"))+"\"\n"))

	var out testutil.SafeBuffer
	err := run(context.Background(), []string{
		"luna25",
		"--config", path,
		"--extract-dir", filepath.Join(root, "extracted"),
		"--extract-only",
	}, &out)

	// No part files under the configured data directory
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagReassembly))
}

func TestRun_Catalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"id":1,"files":[
			{"key":"img_002","size":2048,"links":{"self":"https://zenodo.test/img_002"}},
			{"key":"img_001","size":1024,"links":{"self":"https://zenodo.test/img_001"}},
			{"key":"luna25_nodule_blocks.zip","size":10,"links":{"self":"https://zenodo.test/n"}}
		]}]}}`))
	}))
	defer srv.Close()

	var out testutil.SafeBuffer
	err := run(context.Background(), []string{
		"luna25",
		"--log-color=false",
		"--zenodo-url", srv.URL,
		"--image-limit", "1",
		"catalog",
	}, &out)
	gt.NoError(t, err).Required()

	gt.String(t, out.String()).
		Contains("images\timg_001\t1024").
		NotContains("images\timg_002").
		Contains("nodules\tluna25_nodule_blocks.zip\t10").
		Contains("# images: 1 files, 1.0 KiB")
}

func TestHumanBytes(t *testing.T) {
	gt.Equal(t, humanBytes(512), "512 B")
	gt.Equal(t, humanBytes(1536), "1.5 KiB")
	gt.Equal(t, humanBytes(3*1024*1024*1024), "3.0 GiB")
}
