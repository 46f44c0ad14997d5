package config

import (
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/domain/model"
)

// Layout holds the on-disk layout configuration
type Layout struct {
	DataDir       string
	ExtractDir    string
	ImagesSubdir  string
	NodulesSubdir string
}

// Flags returns CLI flags for layout configuration
func (c *Layout) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Root directory of downloaded and prepared files",
			Value:       model.DefaultDataRoot,
			Destination: &c.DataDir,
			Sources:     cli.EnvVars("LUNA25_DATA_DIR"),
		},
		&cli.StringFlag{
			Name:        "extract-dir",
			Usage:       "Root directory for temporary extraction, must be on the same filesystem as --data-dir",
			Value:       model.DefaultExtractRoot,
			Destination: &c.ExtractDir,
			Sources:     cli.EnvVars("LUNA25_EXTRACT_DIR"),
		},
		&cli.StringFlag{
			Name:        "images-subdir",
			Usage:       "Top-level directory inside the image archive",
			Value:       model.DefaultImagesSubdir,
			Destination: &c.ImagesSubdir,
			Sources:     cli.EnvVars("LUNA25_IMAGES_SUBDIR"),
		},
		&cli.StringFlag{
			Name:        "nodules-subdir",
			Usage:       "Top-level directory inside the nodule block archive",
			Value:       model.DefaultNoduleSubdir,
			Destination: &c.NodulesSubdir,
			Sources:     cli.EnvVars("LUNA25_NODULES_SUBDIR"),
		},
	}
}

// Build returns the validated layout
func (c *Layout) Build() (model.Layout, error) {
	layout := model.DefaultLayout()
	layout.DataRoot = c.DataDir
	layout.ExtractRoot = c.ExtractDir
	layout.Subdirs[model.CategoryImages] = c.ImagesSubdir
	layout.Subdirs[model.CategoryNodules] = c.NodulesSubdir

	if err := layout.Validate(); err != nil {
		return model.Layout{}, err
	}
	return layout, nil
}
