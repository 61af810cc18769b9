package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/imagepull/internal/report"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "inspect <summary.yaml|manifest.parquet>",
		Short: "Print a summary or manifest written by fetch",
		Example: `  imagepull inspect run.yaml

  # Only the images that could not be saved
  imagepull inspect run.parquet --failed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				summary, err := report.LoadSummaryYAML(path)
				if err != nil {
					return err
				}
				printSummaryFile(cmd.OutOrStdout(), summary)
				return nil
			case ".parquet":
				rows, err := report.LoadManifest(path)
				if err != nil {
					return err
				}
				return printManifest(cmd.OutOrStdout(), rows, failedOnly)
			default:
				return goerr.New("unsupported file type, expected .yaml or .parquet", goerr.V("path", path))
			}
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list manifest rows that failed")

	return cmd
}

func printSummaryFile(w io.Writer, s *report.Summary) {
	fmt.Fprintf(w, "Session:   %s\n", s.SessionID)
	fmt.Fprintf(w, "Dataset:   %s\n", s.Dataset)
	fmt.Fprintf(w, "Finished:  %s\n", s.Timestamp)
	fmt.Fprintf(w, "Message:   %s\n", s.Message)
	fmt.Fprintf(w, "Images:    %d total, %d saved, %d failed\n", s.TotalImages, s.Saved, s.Failed)
	fmt.Fprintf(w, "Selected:  %s\n", strings.Join(s.Selected, ", "))
	fmt.Fprintf(w, "Output:    %s\n", s.OutputDir)
	for _, col := range s.Columns {
		fmt.Fprintf(w, "  %s: %d/%d\n", col.Column, col.Saved, col.Images)
	}
}

func printManifest(w io.Writer, rows []report.ManifestRow, failedOnly bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tFILENAME\tTYPE\tBYTES\tPATH\tERROR")

	shown := 0
	for _, row := range rows {
		if failedOnly && row.Error == "" {
			continue
		}
		shown++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			row.Column, row.Filename, row.ContentType, row.Bytes, row.Path, row.Error)
	}

	if err := tw.Flush(); err != nil {
		return goerr.Wrap(err, "failed to print manifest")
	}
	fmt.Fprintf(w, "\n%d of %d row(s)\n", shown, len(rows))
	return nil
}
