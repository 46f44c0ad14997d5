package config

import (
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/usecase"
)

// Dataset holds which datasets are downloaded and how
type Dataset struct {
	Images      string
	Annotations string
	ImageLimit  int
	FetchPolicy string
}

// Flags returns CLI flags for dataset configuration
func (c *Dataset) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "images-dataset",
			Usage:       "DOI or gs://bucket/prefix of the image and nodule block dataset",
			Value:       usecase.DefaultImagesDataset,
			Destination: &c.Images,
			Sources:     cli.EnvVars("LUNA25_IMAGES_DATASET"),
		},
		&cli.StringFlag{
			Name:        "annotations-dataset",
			Usage:       "DOI or gs://bucket/prefix of the annotation dataset",
			Value:       usecase.DefaultAnnotationsDataset,
			Destination: &c.Annotations,
			Sources:     cli.EnvVars("LUNA25_ANNOTATIONS_DATASET"),
		},
		&cli.IntFlag{
			Name:        "image-limit",
			Usage:       "Maximum number of image files to download, -1 for all",
			Value:       model.NoLimit,
			Destination: &c.ImageLimit,
			Sources:     cli.EnvVars("LUNA25_IMAGE_LIMIT"),
		},
		&cli.StringFlag{
			Name:        "fetch-policy",
			Usage:       "What a failed download does: best-effort or fail-fast",
			Value:       string(model.FetchPolicyBestEffort),
			Destination: &c.FetchPolicy,
			Sources:     cli.EnvVars("LUNA25_FETCH_POLICY"),
		},
	}
}

// Policy returns the parsed fetch policy
func (c *Dataset) Policy() (model.FetchPolicy, error) {
	return model.ParseFetchPolicy(c.FetchPolicy)
}
