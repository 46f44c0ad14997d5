package model

import (
	"path/filepath"
	"slices"
	"strings"
)

// Category identifies one kind of dataset content. The value is also the
// directory name used under the data and extraction roots.
type Category string

const (
	CategoryImages      Category = "images"
	CategoryNodules     Category = "nodules"
	CategoryAnnotations Category = "annotations"
)

// NoLimit disables the image record cap
const NoLimit = -1

// FileRecord is one downloadable file listed by a catalog
type FileRecord struct {
	Name     string   // File name, also used as the local file name
	URL      string   // Download URL
	Size     int64    // Size in bytes as reported by the catalog, 0 if unknown
	Category Category // Assigned when the record is routed
}

// DownloadSet is an ordered set of records belonging to one category
type DownloadSet struct {
	Category Category
	Records  []FileRecord
}

// Names returns the record names in set order
func (s DownloadSet) Names() []string {
	names := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		names = append(names, r.Name)
	}
	return names
}

// IsPlainFileName reports whether name can be used as a file name inside a
// directory without escaping it
func IsPlainFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// ClassifyImageRecord decides whether a record of the image dataset is a nodule block or a CT image
func ClassifyImageRecord(name string) Category {
	if strings.Contains(name, "nodule") {
		return CategoryNodules
	}
	return CategoryImages
}

// SortRecords sorts records by name without modifying the input
func SortRecords(records []FileRecord) []FileRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b FileRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
	return sorted
}

// RouteImageRecords splits the image dataset records into image and nodule sets.
// Records are sorted by name first. Nodule records are never capped; image
// records beyond limit are dropped unless limit is negative.
func RouteImageRecords(records []FileRecord, limit int) (images, nodules DownloadSet) {
	images.Category = CategoryImages
	nodules.Category = CategoryNodules

	for _, r := range SortRecords(records) {
		switch ClassifyImageRecord(r.Name) {
		case CategoryNodules:
			r.Category = CategoryNodules
			nodules.Records = append(nodules.Records, r)
		default:
			if limit >= 0 && len(images.Records) >= limit {
				continue
			}
			r.Category = CategoryImages
			images.Records = append(images.Records, r)
		}
	}

	return images, nodules
}

// AnnotationSet builds the annotation set. Annotations are never capped.
func AnnotationSet(records []FileRecord) DownloadSet {
	set := DownloadSet{Category: CategoryAnnotations}
	for _, r := range SortRecords(records) {
		r.Category = CategoryAnnotations
		set.Records = append(set.Records, r)
	}
	return set
}
