package config_test

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/brendondgr/luna25/pkg/cli/config"
	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/testutil"
)

type flagState map[string]bool

func (s flagState) IsSet(name string) bool { return s[name] }

const configTOML = `
[data]
dir = "/mnt/luna25/data"
extract_dir = "/mnt/luna25/extracted"

[dataset]
image_limit = 0
fetch_policy = "fail-fast"

[zenodo]
token = "from-file"

[notify]
slack_webhook_url = "https://hooks.slack.test/x"

[log]
level = "debug"
color = false
`

func TestFile_Apply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luna25.toml")
	testutil.WriteFile(t, path, []byte(configTOML))

	file, err := config.LoadFile(path)
	gt.NoError(t, err).Required()

	logger := config.Logger{Level: "info", Color: true}
	layout := config.Layout{DataDir: "cli-data", ExtractDir: "extracted"}
	dataset := config.Dataset{ImageLimit: model.NoLimit, FetchPolicy: "best-effort"}
	zenodoCfg := config.Zenodo{URL: "https://zenodo.org/api"}
	slackCfg := config.Slack{}

	file.Apply(flagState{"data-dir": true}, config.Targets{
		Logger:  &logger,
		Layout:  &layout,
		Dataset: &dataset,
		Zenodo:  &zenodoCfg,
		Slack:   &slackCfg,
	})

	// Explicit flags win over the file
	gt.Equal(t, layout.DataDir, "cli-data")
	gt.Equal(t, layout.ExtractDir, "/mnt/luna25/extracted")
	gt.Equal(t, dataset.ImageLimit, 0)
	gt.Equal(t, dataset.FetchPolicy, "fail-fast")
	gt.Equal(t, zenodoCfg.URL, "https://zenodo.org/api")
	gt.Equal(t, zenodoCfg.Token, "from-file")
	gt.Equal(t, slackCfg.WebhookURL, "https://hooks.slack.test/x")
	gt.Equal(t, logger.Level, "debug")
	gt.False(t, logger.Color)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadFile(filepath.Join(dir, "missing.toml"))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))

	unknown := filepath.Join(dir, "unknown.toml")
	testutil.WriteFile(t, unknown, []byte("[data]\nfolder = \"x\"\n"))
	_, err = config.LoadFile(unknown)
	gt.Error(t, err).Contains("failed to decode")
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}

func TestLayout_Build(t *testing.T) {
	c := config.Layout{
		DataDir:       "data",
		ExtractDir:    "extracted",
		ImagesSubdir:  "imgs",
		NodulesSubdir: "blocks",
	}
	layout, err := c.Build()
	gt.NoError(t, err).Required()
	gt.Equal(t, layout.NestedSubdir(model.CategoryImages), "imgs")
	gt.Equal(t, layout.NestedSubdir(model.CategoryNodules), "blocks")
	gt.Equal(t, layout.CombinedName, model.DefaultCombinedName)

	c.ExtractDir = "data"
	_, err = c.Build()
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}

func TestDataset_Policy(t *testing.T) {
	p, err := (&config.Dataset{FetchPolicy: "fail-fast"}).Policy()
	gt.NoError(t, err)
	gt.Equal(t, p, model.FetchPolicyFailFast)

	_, err = (&config.Dataset{FetchPolicy: "sometimes"}).Policy()
	gt.Error(t, err)
}

func TestSlack_Notifier(t *testing.T) {
	gt.Value(t, (&config.Slack{}).Notifier()).Nil()
	gt.Value(t, (&config.Slack{WebhookURL: "https://hooks.slack.test/x"}).Notifier()).NotNil()
}

func TestSentry_Disabled(t *testing.T) {
	s := config.Sentry{}
	gt.False(t, s.Enabled())
	gt.NoError(t, s.Configure())
	s.Capture(goerr.New("ignored"))
}
