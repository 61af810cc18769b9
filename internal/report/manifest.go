package report

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/m-mizutani/goerr/v2"
	"github.com/parquet-go/parquet-go"
)

// ManifestRow describes one materialized (or failed) image
type ManifestRow struct {
	Column      string `parquet:"column"`
	Filename    string `parquet:"filename"`
	Path        string `parquet:"path"`
	ContentType string `parquet:"content_type"`
	Bytes       int64  `parquet:"bytes"`
	Error       string `parquet:"error"`
}

// ManifestRows flattens a materialization report, one row per descriptor
func ManifestRows(rep *images.Report) []ManifestRow {
	rows := make([]ManifestRow, 0, len(rep.Results))
	for _, res := range rep.Results {
		row := ManifestRow{
			Column:      res.Column,
			Filename:    res.Filename,
			Path:        res.Path,
			ContentType: res.ContentType,
			Bytes:       int64(res.Bytes),
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteManifest stores the report's rows as a Parquet file
func WriteManifest(path string, rep *images.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return goerr.Wrap(err, "failed to create manifest directory", goerr.V("path", path))
	}

	file, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create manifest", goerr.V("path", path))
	}
	defer file.Close()

	rows := ManifestRows(rep)
	writer := parquet.NewGenericWriter[ManifestRow](file)
	if _, err := writer.Write(rows); err != nil {
		return goerr.Wrap(err, "failed to write manifest rows", goerr.V("path", path))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish manifest", goerr.V("path", path))
	}

	slog.Debug("Wrote manifest", "path", path, "rows", len(rows))
	return nil
}

// LoadManifest reads every row of a manifest written by WriteManifest
func LoadManifest(path string) ([]ManifestRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open manifest", goerr.V("path", path))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat manifest", goerr.V("path", path))
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open parquet", goerr.V("path", path))
	}

	reader := parquet.NewGenericReader[ManifestRow](pf)
	defer reader.Close()

	var manifest []ManifestRow
	rows := make([]ManifestRow, 128)
	for {
		n, err := reader.Read(rows)
		manifest = append(manifest, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read manifest rows", goerr.V("path", path))
		}
	}

	return manifest, nil
}
