package usecase

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/model"
	"github.com/brendondgr/luna25/pkg/utils/logging"
	"github.com/brendondgr/luna25/pkg/utils/report"
)

// Published LUNA25 datasets
const (
	DefaultImagesDataset      = "10.5281/zenodo.14223624"
	DefaultAnnotationsDataset = "10.5281/zenodo.14673658"
)

type prepareUseCase struct {
	catalog   interfaces.CatalogLister
	fetcher   interfaces.Fetcher
	extractor interfaces.Extractor
	notifier  interfaces.Notifier
	reporter  *report.Reporter

	layout             model.Layout
	imageLimit         int
	imagesDataset      string
	annotationsDataset string
	policy             model.FetchPolicy
	newRunID           func() string
}

// PrepareOption configures the prepare use case
type PrepareOption func(*prepareUseCase)

// WithLayout replaces the default on-disk layout
func WithLayout(layout model.Layout) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.layout = layout
	}
}

// WithImageLimit caps the number of image records downloaded. model.NoLimit disables the cap.
func WithImageLimit(limit int) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.imageLimit = limit
	}
}

// WithDatasets sets the dataset identifiers of the image and annotation catalogs
func WithDatasets(images, annotations string) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.imagesDataset = images
		uc.annotationsDataset = annotations
	}
}

// WithFetchPolicy sets how a failed download is handled
func WithFetchPolicy(policy model.FetchPolicy) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.policy = policy
	}
}

// WithNotifier sets a notifier informed after every run
func WithNotifier(notifier interfaces.Notifier) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.notifier = notifier
	}
}

// WithRunID replaces the run ID generator
func WithRunID(fn func() string) PrepareOption {
	return func(uc *prepareUseCase) {
		uc.newRunID = fn
	}
}

// NewPrepare creates the dataset preparation use case
func NewPrepare(
	catalog interfaces.CatalogLister,
	fetcher interfaces.Fetcher,
	extractor interfaces.Extractor,
	reporter *report.Reporter,
	opts ...PrepareOption,
) interfaces.PrepareUseCase {
	uc := &prepareUseCase{
		catalog:            catalog,
		fetcher:            fetcher,
		extractor:          extractor,
		reporter:           reporter,
		layout:             model.DefaultLayout(),
		imageLimit:         model.NoLimit,
		imagesDataset:      DefaultImagesDataset,
		annotationsDataset: DefaultAnnotationsDataset,
		policy:             model.FetchPolicyBestEffort,
		newRunID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Plan lists both catalogs and returns the image, nodule and annotation sets
func (uc *prepareUseCase) Plan(ctx context.Context) ([]model.DownloadSet, error) {
	uc.reporter.Step(ctx, "Getting Records...")

	imageRecords, err := uc.catalog.ListRecords(ctx, uc.imagesDataset)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list image records", goerr.V("dataset", uc.imagesDataset))
	}
	annotationRecords, err := uc.catalog.ListRecords(ctx, uc.annotationsDataset)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list annotation records", goerr.V("dataset", uc.annotationsDataset))
	}

	images, nodules := model.RouteImageRecords(imageRecords, uc.imageLimit)
	return []model.DownloadSet{images, nodules, model.AnnotationSet(annotationRecords)}, nil
}

// Run executes the pipeline: download unless input.ExtractOnly, then
// reassemble, extract and normalize images and nodules in that order.
func (uc *prepareUseCase) Run(ctx context.Context, input interfaces.PrepareInput) (result *model.PrepareResult, err error) {
	result = &model.PrepareResult{RunID: uc.newRunID()}

	logger := logging.From(ctx).With("run_id", result.RunID)
	ctx = logging.With(ctx, logger)

	if err := uc.layout.Validate(); err != nil {
		return result, err
	}

	logger.Info("Starting dataset preparation",
		"extract_only", input.ExtractOnly,
		"data_root", uc.layout.DataRoot,
		"extract_root", uc.layout.ExtractRoot,
		"image_limit", uc.imageLimit,
		"fetch_policy", uc.policy,
	)

	done := uc.reporter.Begin(ctx, "prepare")
	defer func() {
		done(err)
		uc.notify(ctx, result, err)
	}()

	// nil parts means the part files are discovered on disk
	var parts map[model.Category][]string
	if input.ExtractOnly {
		uc.reporter.Plain("-- Extracting Files Only --")
	} else {
		parts, err = uc.download(ctx, result)
		if err != nil {
			return result, err
		}
	}

	for _, category := range []model.Category{model.CategoryImages, model.CategoryNodules} {
		var names []string
		if parts != nil {
			names = parts[category]
		}
		summary, err := uc.extract(ctx, category, names)
		if err != nil {
			return result, goerr.Wrap(err, "failed to extract category", goerr.V("category", category))
		}
		result.Extracted = append(result.Extracted, *summary)
	}

	// The extraction root only goes away when nothing else lives there
	if err := os.Remove(uc.layout.ExtractRoot); err != nil && !os.IsNotExist(err) {
		logger.Debug("Extraction root kept", "dir", uc.layout.ExtractRoot, "reason", err.Error())
	}

	logger.Info("Dataset preparation finished",
		"failed_downloads", result.FailedCount(),
	)
	return result, nil
}

// download fetches every planned set and returns, per category, the names
// of the part files now present in the data directory.
func (uc *prepareUseCase) download(ctx context.Context, result *model.PrepareResult) (_ map[model.Category][]string, err error) {
	done := uc.reporter.Begin(ctx, "download")
	defer func() { done(err) }()

	sets, err := uc.Plan(ctx)
	if err != nil {
		return nil, err
	}

	parts := make(map[model.Category][]string, len(sets))
	downloader := NewDownloader(uc.fetcher, uc.policy, uc.reporter)
	for _, set := range sets {
		summary, err := downloader.Download(ctx, set, uc.layout.DataDir(set.Category))
		if summary != nil {
			result.Downloads = append(result.Downloads, *summary)
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to download category",
				goerr.V("category", set.Category),
				goerr.V("step", "download"))
		}
		parts[set.Category] = presentParts(set, summary)

		switch set.Category {
		case model.CategoryNodules:
			uc.reporter.Banner("Images Downloaded")
		case model.CategoryAnnotations:
			uc.reporter.Banner("Annotations Downloaded")
		}
	}
	return parts, nil
}

// presentParts returns the names of set that were fetched or skipped
func presentParts(set model.DownloadSet, summary *model.DownloadSummary) []string {
	failed := make(map[string]struct{}, len(summary.Failed))
	for _, f := range summary.Failed {
		failed[f.Name] = struct{}{}
	}

	names := make([]string, 0, len(set.Records))
	for _, name := range set.Names() {
		if _, ok := failed[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// extract reassembles, extracts and normalizes one category. parts names the
// part files to join; when nil every part file in the data directory is used.
func (uc *prepareUseCase) extract(ctx context.Context, category model.Category, parts []string) (_ *model.ExtractSummary, err error) {
	done := uc.reporter.Begin(ctx, string(category))
	defer func() { done(err) }()

	dataDir := uc.layout.DataDir(category)
	extractDir := uc.layout.ExtractDir(category)
	uc.reporter.Step(ctx, "Extracting %s from %s to %s", category, dataDir, extractDir)

	if parts == nil {
		parts, err = ListParts(dataDir, uc.layout.CombinedName)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list parts", goerr.V("step", "reassemble"))
		}
	}

	combined, err := NewReassembler(uc.layout.CombinedName, uc.reporter).Reassemble(ctx, parts, dataDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to reassemble archive", goerr.V("step", "reassemble"))
	}
	summary := &model.ExtractSummary{
		Category:  category,
		Parts:     parts,
		Directory: dataDir,
	}
	if info, err := os.Stat(combined); err == nil {
		summary.Bytes = info.Size()
	}

	// Extraction always starts from an empty directory
	if err := os.RemoveAll(extractDir); err != nil {
		return nil, goerr.Wrap(err, "failed to clear extraction directory",
			goerr.V("step", "extract"),
			goerr.V("dir", extractDir))
	}

	uc.reporter.Step(ctx, "Extracting Files, Please Wait...")
	if err := uc.extractor.Extract(ctx, combined, extractDir); err != nil {
		return nil, goerr.Wrap(err, "failed to extract archive", goerr.V("step", "extract"))
	}
	if err := os.Remove(combined); err != nil {
		return nil, goerr.Wrap(err, "failed to remove combined archive",
			goerr.V("step", "extract"),
			goerr.V("path", combined))
	}

	subdir := uc.layout.NestedSubdir(category)
	if err := NewNormalizer(uc.reporter).Normalize(ctx, dataDir, extractDir, subdir); err != nil {
		return nil, goerr.Wrap(err, "failed to normalize directory", goerr.V("step", "normalize"))
	}

	if err := os.Remove(extractDir); err != nil {
		return nil, goerr.Wrap(err, "failed to remove extraction directory",
			goerr.V("step", "normalize"),
			goerr.V("dir", extractDir))
	}
	return summary, nil
}

func (uc *prepareUseCase) notify(ctx context.Context, result *model.PrepareResult, runErr error) {
	if uc.notifier == nil {
		return
	}

	// Notify even when ctx was cancelled
	ctx = logging.Detach(ctx)
	if err := uc.notifier.Notify(ctx, result, runErr); err != nil {
		logging.From(ctx).Warn("Failed to send notification", "error", err)
	}
}
