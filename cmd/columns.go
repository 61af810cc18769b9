package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/imagepull/internal/columns"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
)

func newColumnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns <dataset>",
		Short: "List a dataset's columns ranked by how likely they hold image URLs",
		Long: fmt.Sprintf(`Uploads the dataset to the extraction service and prints its columns.

Matching is case-insensitive on the column name only. Names containing
%s are listed first as Recommended; names containing
%s follow as Suggested.`,
			quoteKeywords(columns.Keywords(columns.TierHigh)),
			quoteKeywords(columns.Keywords(columns.TierMedium))),
		Example: `  # Rank the columns of a HubSpot export
  imagepull columns contacts.csv

  # Against a remote service
  imagepull columns products.xlsx --server http://extract.internal:8000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, file, err := openDataset(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			machine, _ := newMachine(cmd)
			if err := machine.Upload(cmd.Context(), dataset); err != nil {
				return err
			}

			session := machine.Session()
			if session.Error != "" {
				return goerr.New(session.Error, goerr.V("dataset", dataset.Name))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d columns\n\n", session.DisplayName, len(session.Columns))
			printColumns(out, session.Columns, columns.Selection{})

			if suggested := columns.Suggested(session.Columns); len(suggested) > 0 {
				fmt.Fprintf(out, "\n%d column(s) likely contain image URLs\n", len(suggested))
			}
			return nil
		},
	}

	addServiceFlags(cmd)

	return cmd
}

func quoteKeywords(keywords []string) string {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = strconv.Quote(k)
	}
	return strings.Join(quoted, ", ")
}
