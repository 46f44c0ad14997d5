package config

import (
	"github.com/urfave/cli/v3"

	"github.com/brendondgr/luna25/pkg/infra/zenodo"
)

// Zenodo holds Zenodo API configuration
type Zenodo struct {
	URL   string
	Token string `masq:"secret"`
}

// Flags returns CLI flags for Zenodo configuration
func (c *Zenodo) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "zenodo-url",
			Usage:       "Base URL of the Zenodo REST API",
			Value:       zenodo.DefaultBaseURL,
			Destination: &c.URL,
			Sources:     cli.EnvVars("LUNA25_ZENODO_URL"),
		},
		&cli.StringFlag{
			Name:        "zenodo-token",
			Usage:       "Zenodo personal access token, needed for restricted records only",
			Destination: &c.Token,
			Sources:     cli.EnvVars("LUNA25_ZENODO_TOKEN"),
		},
	}
}
