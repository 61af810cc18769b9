package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/imagepull/internal/columns"
	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/report"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
)

type fetchOptions struct {
	columns   []string
	suggested bool
	all       bool
	summary   string
	manifest  string
}

func newFetchCmd() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <dataset>",
		Short: "Upload a dataset and save the images of the selected columns",
		Long: `Runs the whole pipeline in one go: upload the dataset, select columns,
ask the extraction service for the images they reference, and save each
returned image under <output>/<column>/<filename>.

At least one of --column, --suggested or --all is required.`,
		Example: `  # Save images from the recommended and suggested columns
  imagepull fetch contacts.csv --suggested

  # Pick columns explicitly and keep a record of the run
  imagepull fetch contacts.csv --column "Photo URL" --column Logo \
    --summary run.yaml --manifest run.parquet

  # Everything, into a custom folder
  imagepull fetch products.xlsx --all --output ./images`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.columns) == 0 && !opts.suggested && !opts.all {
				return goerr.New("no columns requested; use --column, --suggested or --all")
			}

			dataset, file, err := openDataset(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			machine, store := newMachine(cmd)
			out := cmd.OutOrStdout()

			if err := machine.Upload(cmd.Context(), dataset); err != nil {
				return err
			}
			session := machine.Session()
			if session.Error != "" {
				return goerr.New(session.Error, goerr.V("dataset", dataset.Name))
			}
			fmt.Fprintf(out, "Uploaded %s (%d columns)\n", session.DisplayName, len(session.Columns))

			if err := selectColumns(machine, opts); err != nil {
				printColumns(out, session.Columns, machine.Session().Selected)
				return err
			}

			session = machine.Session()
			fmt.Fprintf(out, "Retrieving images from %d column(s): %s\n",
				session.Selected.Len(), strings.Join(session.Selected.Columns(), ", "))

			rep, err := machine.Download(cmd.Context())
			if err != nil {
				return err
			}

			session = machine.Session()
			if session.Stage != workflow.StageComplete {
				printFailure(out, session)
				return goerr.New(session.Error, goerr.V("session_id", session.ID))
			}

			summary := report.NewSummary(session, rep, store.Root())
			printSummary(out, summary, rep)

			if opts.summary != "" {
				if err := report.SaveSummaryYAML(opts.summary, summary); err != nil {
					return err
				}
				slog.Info("Summary written", "path", opts.summary)
			}
			if opts.manifest != "" {
				if err := report.WriteManifest(opts.manifest, rep); err != nil {
					return err
				}
				slog.Info("Manifest written", "path", opts.manifest)
			}

			return nil
		},
	}

	addServiceFlags(cmd)
	cmd.Flags().StringArrayVar(&opts.columns, "column", nil, "Column to retrieve images from (repeatable)")
	cmd.Flags().BoolVar(&opts.suggested, "suggested", false, "Select every Recommended and Suggested column")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Select every column")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "Write a YAML completion summary to this path")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "Write a Parquet manifest of saved images to this path")

	return cmd
}

// selectColumns applies the requested selection to a machine in the select
// stage. Explicit columns are added on top of --suggested.
func selectColumns(machine *workflow.Machine, opts fetchOptions) error {
	if opts.all {
		return machine.SelectAll()
	}

	wanted := opts.columns
	if opts.suggested {
		wanted = append(columns.Suggested(machine.Session().Columns), wanted...)
	}

	for _, name := range wanted {
		if machine.Session().Selected.Contains(name) {
			continue
		}
		if err := machine.Toggle(name); err != nil {
			return goerr.Wrap(err, "failed to select column", goerr.V("column", name))
		}
	}

	if machine.Session().Selected.IsEmpty() {
		return goerr.New("none of the columns look like image URLs; pick them with --column")
	}
	return nil
}

func printFailure(w io.Writer, session workflow.Session) {
	fmt.Fprintln(w, errorText(session.Error))

	if session.Error != workflow.FallbackMessage {
		return
	}
	suggested := columns.Suggested(session.Columns)
	if len(suggested) == 0 {
		return
	}
	fmt.Fprintf(w, "Tip: columns marked Recommended or Suggested usually hold image URLs: %s\n",
		strings.Join(suggested, ", "))
}

func printSummary(w io.Writer, summary report.Summary, rep *images.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, recommendedBadge("Download complete"))
	if summary.Message != "" {
		fmt.Fprintf(w, "  %s\n", summary.Message)
	}
	fmt.Fprintf(w, "  Total images:     %d\n", summary.TotalImages)
	fmt.Fprintf(w, "  Columns selected: %d\n", len(summary.Selected))
	fmt.Fprintf(w, "  Saved:            %d\n", summary.Saved)
	if summary.Failed > 0 {
		fmt.Fprintf(w, "  Failed:           %s\n", errorText(summary.Failed))
	}
	for _, col := range summary.Columns {
		fmt.Fprintf(w, "    %s: %d/%d\n", col.Column, col.Saved, col.Images)
	}
	fmt.Fprintf(w, "  Saved to:         %s\n", summary.OutputDir)

	for _, res := range rep.Results {
		if res.Err != nil {
			fmt.Fprintf(w, "  %s %s/%s: %v\n", errorText("x"), res.Column, res.Filename, res.Err)
		}
	}
}
