package model_test

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
)

func TestDefaultLayout(t *testing.T) {
	l := model.DefaultLayout()
	gt.NoError(t, l.Validate())

	gt.Equal(t, l.DataDir(model.CategoryImages), filepath.Join("data", "images"))
	gt.Equal(t, l.DataDir(model.CategoryAnnotations), filepath.Join("data", "annotations"))
	gt.Equal(t, l.ExtractDir(model.CategoryNodules), filepath.Join("extracted", "nodules"))
	gt.Equal(t, l.NestedSubdir(model.CategoryImages), "luna25_images")
	gt.Equal(t, l.NestedSubdir(model.CategoryNodules), "luna25_nodule_blocks")
	gt.Equal(t, l.NestedSubdir(model.CategoryAnnotations), "")
}

func TestLayout_Validate(t *testing.T) {
	type testCase struct {
		modify  func(l *model.Layout)
		wantErr bool
	}

	runTest := func(tc testCase) func(t *testing.T) {
		return func(t *testing.T) {
			l := model.DefaultLayout()
			tc.modify(&l)
			err := l.Validate()
			if tc.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
			} else {
				gt.NoError(t, err)
			}
		}
	}

	t.Run("custom roots", runTest(testCase{
		modify: func(l *model.Layout) {
			l.DataRoot = "/mnt/luna25/data"
			l.ExtractRoot = "/mnt/luna25/tmp"
		},
	}))
	t.Run("empty data root", runTest(testCase{
		modify:  func(l *model.Layout) { l.DataRoot = "" },
		wantErr: true,
	}))
	t.Run("empty extract root", runTest(testCase{
		modify:  func(l *model.Layout) { l.ExtractRoot = "" },
		wantErr: true,
	}))
	t.Run("same roots", runTest(testCase{
		modify: func(l *model.Layout) {
			l.DataRoot = "work/"
			l.ExtractRoot = "work"
		},
		wantErr: true,
	}))
	t.Run("combined name with directory", runTest(testCase{
		modify:  func(l *model.Layout) { l.CombinedName = "tmp/combined.zip" },
		wantErr: true,
	}))
	t.Run("subdir with separator", runTest(testCase{
		modify:  func(l *model.Layout) { l.Subdirs[model.CategoryImages] = "a/b" },
		wantErr: true,
	}))
	t.Run("missing nodule subdir", runTest(testCase{
		modify:  func(l *model.Layout) { delete(l.Subdirs, model.CategoryNodules) },
		wantErr: true,
	}))
}

func TestParseFetchPolicy(t *testing.T) {
	p, err := model.ParseFetchPolicy("best-effort")
	gt.NoError(t, err)
	gt.Equal(t, p, model.FetchPolicyBestEffort)

	p, err = model.ParseFetchPolicy("fail-fast")
	gt.NoError(t, err)
	gt.Equal(t, p, model.FetchPolicyFailFast)

	_, err = model.ParseFetchPolicy("retry-forever")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}

func TestPrepareResult_FailedCount(t *testing.T) {
	r := &model.PrepareResult{
		Downloads: []model.DownloadSummary{
			{Category: model.CategoryImages, Failed: []model.FetchFailure{{Name: "a"}, {Name: "b"}}},
			{Category: model.CategoryNodules},
			{Category: model.CategoryAnnotations, Failed: []model.FetchFailure{{Name: "c"}}},
		},
	}
	gt.Equal(t, r.FailedCount(), 3)
}
