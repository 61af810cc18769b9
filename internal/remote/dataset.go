package remote

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// MaxDatasetSize is the largest dataset the service accepts (10MB)
const MaxDatasetSize = 10 * 1024 * 1024

// AcceptedExtensions lists the spreadsheet formats the service can parse
var AcceptedExtensions = []string{".csv", ".xlsx", ".xls"}

var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrDatasetTooLarge   = errors.New("dataset too large")
	ErrEmptyDataset      = errors.New("dataset is empty")
)

// ValidateDataset rejects files the service would refuse before any upload happens
func ValidateDataset(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(AcceptedExtensions, ext) {
		return goerr.Wrap(ErrUnsupportedFormat, "dataset must be CSV or Excel",
			goerr.V("name", name), goerr.V("extension", ext))
	}

	if size == 0 {
		return goerr.Wrap(ErrEmptyDataset, "nothing to upload", goerr.V("name", name))
	}

	if size > MaxDatasetSize {
		return goerr.Wrap(ErrDatasetTooLarge, "dataset exceeds 10MB",
			goerr.V("name", name), goerr.V("size", size))
	}

	return nil
}
