package zenodo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/domain/types"
	"github.com/brendondgr/luna25/pkg/utils/logging"
)

// DefaultBaseURL is the public Zenodo REST API
const DefaultBaseURL = "https://zenodo.org/api"

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the Zenodo client
type Option func(*client)

// WithToken sets a personal access token sent as a bearer token
func WithToken(token string) Option {
	return func(c *client) {
		c.token = token
	}
}

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// NewClient creates a catalog lister backed by the Zenodo records API
func NewClient(baseURL string, opts ...Option) interfaces.CatalogLister {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Hits struct {
		Total int         `json:"total"`
		Hits  []recordHit `json:"hits"`
	} `json:"hits"`
}

type recordHit struct {
	ID    json.Number `json:"id"`
	DOI   string      `json:"doi"`
	Files []fileEntry `json:"files"`
}

// Zenodo has served both the current (key/size/self) and the legacy
// (filename/filesize/download) shapes.
type fileEntry struct {
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Filesize int64  `json:"filesize"`
	Links    struct {
		Self     string `json:"self"`
		Download string `json:"download"`
	} `json:"links"`
}

func (f fileEntry) record() model.FileRecord {
	r := model.FileRecord{
		Name: f.Key,
		URL:  f.Links.Self,
		Size: f.Size,
	}
	if r.Name == "" {
		r.Name = f.Filename
	}
	if r.URL == "" {
		r.URL = f.Links.Download
	}
	if r.Size == 0 {
		r.Size = f.Filesize
	}
	return r
}

// ListRecords looks up the record published under the DOI datasetID and
// returns its files in catalog order.
func (c *client) ListRecords(ctx context.Context, datasetID string) ([]model.FileRecord, error) {
	logger := logging.From(ctx)

	q := url.Values{}
	q.Set("q", `doi:"`+datasetID+`"`)
	endpoint := c.baseURL + "/records?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create catalog request",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query catalog",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected status code from catalog",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID),
			goerr.V("status", resp.StatusCode))
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, goerr.Wrap(err, "failed to decode catalog response",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}
	if len(body.Hits.Hits) == 0 {
		return nil, goerr.New("no record found for dataset",
			goerr.Tag(types.ErrTagCatalog),
			goerr.V("dataset", datasetID))
	}

	hit := body.Hits.Hits[0]
	records := make([]model.FileRecord, 0, len(hit.Files))
	for _, f := range hit.Files {
		r := f.record()
		if r.Name == "" || r.URL == "" {
			logger.Warn("Skipping catalog entry without name or link", "dataset", datasetID, "record_id", hit.ID)
			continue
		}
		records = append(records, r)
	}

	logger.Debug("Listed catalog records",
		"dataset", datasetID,
		"record_id", hit.ID,
		"files", len(records),
	)
	return records, nil
}
