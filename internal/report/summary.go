package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

// ColumnSummary counts the images retrieved for one column
type ColumnSummary struct {
	Column string `yaml:"column"`
	Images int    `yaml:"images"`
	Saved  int    `yaml:"saved"`
}

// Summary is the completion record of one session
type Summary struct {
	SessionID   string          `yaml:"sessionid"`
	Dataset     string          `yaml:"dataset"`
	Message     string          `yaml:"message"`
	TotalImages int             `yaml:"totalimages"`
	Selected    []string        `yaml:"selected"`
	Saved       int             `yaml:"saved"`
	Failed      int             `yaml:"failed"`
	OutputDir   string          `yaml:"outputdir"`
	Timestamp   string          `yaml:"timestamp"`
	Columns     []ColumnSummary `yaml:"columns"`
}

// NewSummary builds the completion record for a finished session
func NewSummary(session workflow.Session, rep *images.Report, outputDir string) Summary {
	summary := Summary{
		SessionID:   session.ID,
		Dataset:     session.DisplayName,
		Message:     session.Message,
		TotalImages: session.TotalImages,
		Selected:    session.Selected.Columns(),
		OutputDir:   outputDir,
		Timestamp:   time.Now().Format("2006-01-02_15-04-05"),
	}

	if rep == nil {
		return summary
	}

	summary.Saved = rep.Saved()
	summary.Failed = rep.Failed()

	saved := make(map[string]int)
	for _, res := range rep.Results {
		if res.Err == nil {
			saved[res.Column]++
		}
	}
	for _, group := range rep.Groups {
		summary.Columns = append(summary.Columns, ColumnSummary{
			Column: group.Column,
			Images: len(group.Images),
			Saved:  saved[group.Column],
		})
	}

	return summary
}

// SaveSummaryYAML writes summary to path, creating parent directories
func SaveSummaryYAML(path string, summary Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return goerr.Wrap(err, "failed to create summary directory", goerr.V("path", path))
	}

	data, err := yaml.Marshal(&summary)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal YAML")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return goerr.Wrap(err, "failed to write YAML file", goerr.V("path", path))
	}

	return nil
}

// LoadSummaryYAML reads a summary written by SaveSummaryYAML
func LoadSummaryYAML(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read summary", goerr.V("path", path))
	}

	var summary Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return nil, goerr.Wrap(err, "failed to parse summary", goerr.V("path", path))
	}

	return &summary, nil
}
