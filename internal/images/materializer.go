package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrDecode          = errors.New("failed to decode image payload")
	ErrMissingFilename = errors.New("image has no filename")
)

// Asset is a decoded image ready to be written locally
type Asset struct {
	Column      string
	Filename    string
	ContentType string
	Data        []byte
}

// Saver writes one asset and returns where it ended up
type Saver interface {
	Save(ctx context.Context, asset Asset) (string, error)
}

// Group holds the images retrieved from one column
type Group struct {
	Column string
	Images []models.ImageDescriptor
}

// Result is the outcome of materializing one descriptor
type Result struct {
	Column      string
	Filename    string
	ContentType string
	Path        string
	Bytes       int
	Err         error
}

// Report summarizes one materialization pass
type Report struct {
	TotalImages int // as reported by the service
	Groups      []Group
	Results     []Result
}

// Saved counts descriptors written successfully
func (r *Report) Saved() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts descriptors that could not be decoded or saved
func (r *Report) Failed() int {
	return len(r.Results) - r.Saved()
}

// GroupByColumn groups descriptors by source column. Groups appear in the
// order each column is first seen.
func GroupByColumn(descriptors []models.ImageDescriptor) []Group {
	var groups []Group
	index := make(map[string]int)

	for _, d := range descriptors {
		i, ok := index[d.Column]
		if !ok {
			i = len(groups)
			index[d.Column] = i
			groups = append(groups, Group{Column: d.Column})
		}
		groups[i].Images = append(groups[i].Images, d)
	}

	return groups
}

// ContentType maps a declared extension such as "png" or ".JPG" to image/<ext>
func ContentType(extension string) string {
	ext := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(extension)), ".")
	if ext == "" {
		return "application/octet-stream"
	}
	return "image/" + ext
}

// Decode turns a descriptor's base64 payload into an Asset
func Decode(d models.ImageDescriptor) (Asset, error) {
	if strings.TrimSpace(d.Filename) == "" {
		return Asset{}, goerr.Wrap(ErrMissingFilename, "cannot save image", goerr.V("column", d.Column))
	}

	data, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return Asset{}, goerr.Wrap(ErrDecode, err.Error(), goerr.V("filename", d.Filename))
	}
	if len(data) == 0 {
		return Asset{}, goerr.Wrap(ErrDecode, "empty payload", goerr.V("filename", d.Filename))
	}

	return Asset{
		Column:      d.Column,
		Filename:    d.Filename,
		ContentType: ContentType(d.Extension),
		Data:        data,
	}, nil
}

// Materializer decodes retrieved images and saves each one individually
type Materializer struct {
	saver Saver
}

// NewMaterializer creates a materializer writing through saver
func NewMaterializer(saver Saver) *Materializer {
	return &Materializer{saver: saver}
}

// Materialize saves every descriptor of resp independently. A failure on one
// image is recorded in its Result and the remaining images are still processed.
func (m *Materializer) Materialize(ctx context.Context, resp *models.DownloadResponse) *Report {
	report := &Report{
		TotalImages: resp.TotalImages,
		Groups:      GroupByColumn(resp.Images),
		Results:     make([]Result, 0, len(resp.Images)),
	}

	for _, d := range resp.Images {
		result := m.materializeOne(ctx, d)
		if result.Err != nil {
			slog.Warn("Failed to save image", "column", d.Column, "filename", d.Filename, "error", result.Err)
		} else {
			slog.Debug("Saved image", "column", d.Column, "path", result.Path, "bytes", result.Bytes)
		}
		report.Results = append(report.Results, result)
	}

	slog.Info("Materialized images",
		"columns", len(report.Groups),
		"saved", report.Saved(),
		"failed", report.Failed(),
		"total_images", report.TotalImages)

	return report
}

func (m *Materializer) materializeOne(ctx context.Context, d models.ImageDescriptor) (result Result) {
	result = Result{
		Column:      d.Column,
		Filename:    d.Filename,
		ContentType: ContentType(d.Extension),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Err = goerr.New(fmt.Sprintf("panic while saving image: %v", r), goerr.V("filename", d.Filename))
		}
	}()

	asset, err := Decode(d)
	if err != nil {
		result.Err = err
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Err = goerr.Wrap(err, "materialization stopped", goerr.V("filename", d.Filename))
		return result
	}

	path, err := m.saver.Save(ctx, asset)
	if err != nil {
		result.Err = goerr.Wrap(err, "failed to save image", goerr.V("filename", d.Filename))
		return result
	}

	result.Path = path
	result.Bytes = len(asset.Data)
	return result
}
