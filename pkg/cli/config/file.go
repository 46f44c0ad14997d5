package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/domain/types"
)

// File is the optional TOML configuration file. A value in the file is
// used only when the matching flag was not given on the command line or
// through its environment variable.
//
//	[data]
//	dir = "/mnt/luna25/data"
//	extract_dir = "/mnt/luna25/extracted"
//
//	[dataset]
//	image_limit = 10
//	fetch_policy = "fail-fast"
type File struct {
	Data struct {
		Dir           string `toml:"dir"`
		ExtractDir    string `toml:"extract_dir"`
		ImagesSubdir  string `toml:"images_subdir"`
		NodulesSubdir string `toml:"nodules_subdir"`
	} `toml:"data"`

	Dataset struct {
		Images      string `toml:"images"`
		Annotations string `toml:"annotations"`
		ImageLimit  *int   `toml:"image_limit"`
		FetchPolicy string `toml:"fetch_policy"`
	} `toml:"dataset"`

	Zenodo struct {
		URL   string `toml:"url"`
		Token string `toml:"token" masq:"secret"`
	} `toml:"zenodo"`

	Notify struct {
		SlackWebhookURL string `toml:"slack_webhook_url" masq:"secret"`
		SentryDSN       string `toml:"sentry_dsn" masq:"secret"`
		SentryEnv       string `toml:"sentry_env"`
	} `toml:"notify"`

	Log struct {
		Level string `toml:"level"`
		JSON  *bool  `toml:"json"`
		Color *bool  `toml:"color"`
	} `toml:"log"`
}

// ConfigFile holds the path of the configuration file
type ConfigFile struct {
	Path string
}

// Flags returns CLI flags for the configuration file
func (c *ConfigFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML configuration file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("LUNA25_CONFIG"),
		},
	}
}

// LoadFile reads and decodes a TOML configuration file. Unknown keys are an error.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open config file",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("path", path))
	}
	defer f.Close()

	var file File
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode config file",
			goerr.Tag(types.ErrTagConfig),
			goerr.V("path", path))
	}
	return &file, nil
}

// FlagState tells whether a flag was set explicitly. *cli.Command satisfies it.
type FlagState interface {
	IsSet(name string) bool
}

// Targets are the configuration structs a File fills in
type Targets struct {
	Logger  *Logger
	Layout  *Layout
	Dataset *Dataset
	Zenodo  *Zenodo
	Slack   *Slack
	Sentry  *Sentry
}

// Apply copies file values into targets for every flag not set explicitly
func (f *File) Apply(state FlagState, t Targets) {
	str := func(flag string, dst *string, v string) {
		if dst != nil && v != "" && !state.IsSet(flag) {
			*dst = v
		}
	}

	if t.Layout != nil {
		str("data-dir", &t.Layout.DataDir, f.Data.Dir)
		str("extract-dir", &t.Layout.ExtractDir, f.Data.ExtractDir)
		str("images-subdir", &t.Layout.ImagesSubdir, f.Data.ImagesSubdir)
		str("nodules-subdir", &t.Layout.NodulesSubdir, f.Data.NodulesSubdir)
	}
	if t.Dataset != nil {
		str("images-dataset", &t.Dataset.Images, f.Dataset.Images)
		str("annotations-dataset", &t.Dataset.Annotations, f.Dataset.Annotations)
		str("fetch-policy", &t.Dataset.FetchPolicy, f.Dataset.FetchPolicy)
		if f.Dataset.ImageLimit != nil && !state.IsSet("image-limit") {
			t.Dataset.ImageLimit = *f.Dataset.ImageLimit
		}
	}
	if t.Zenodo != nil {
		str("zenodo-url", &t.Zenodo.URL, f.Zenodo.URL)
		str("zenodo-token", &t.Zenodo.Token, f.Zenodo.Token)
	}
	if t.Slack != nil {
		str("slack-webhook-url", &t.Slack.WebhookURL, f.Notify.SlackWebhookURL)
	}
	if t.Sentry != nil {
		str("sentry-dsn", &t.Sentry.DSN, f.Notify.SentryDSN)
		str("sentry-env", &t.Sentry.Environment, f.Notify.SentryEnv)
	}
	if t.Logger != nil {
		str("log-level", &t.Logger.Level, f.Log.Level)
		if f.Log.JSON != nil && !state.IsSet("log-json") {
			t.Logger.JSON = *f.Log.JSON
		}
		if f.Log.Color != nil && !state.IsSet("log-color") {
			t.Logger.Color = *f.Log.Color
		}
	}
}
