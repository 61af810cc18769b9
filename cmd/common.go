package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/lehigh-university-libraries/imagepull/internal/columns"
	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/remote"
	"github.com/lehigh-university-libraries/imagepull/internal/storage"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
)

var (
	recommendedBadge = color.New(color.FgGreen, color.Bold).SprintFunc()
	suggestedBadge   = color.New(color.FgYellow).SprintFunc()
	faint            = color.New(color.Faint).SprintFunc()
	errorText        = color.New(color.FgRed).SprintFunc()
)

func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", defaultServerURL, "Base URL of the image extraction service (env "+envServerURL+")")
	cmd.Flags().String("output", storage.DefaultRoot, "Local folder for saved images (env "+envOutputDir+")")
}

// newMachine wires the remote client and the local store behind a Machine
func newMachine(cmd *cobra.Command) (*workflow.Machine, *storage.LocalStore) {
	client := remote.NewClient(flagOrEnv(cmd, "server", envServerURL))
	store := storage.New(flagOrEnv(cmd, "output", envOutputDir))
	return workflow.NewMachine(client, images.NewMaterializer(store)), store
}

// openDataset opens a local CSV/Excel file for upload. The caller closes it.
func openDataset(path string) (workflow.Dataset, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return workflow.Dataset{}, nil, goerr.Wrap(err, "failed to open dataset", goerr.V("path", path))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return workflow.Dataset{}, nil, goerr.Wrap(err, "failed to stat dataset", goerr.V("path", path))
	}

	return workflow.Dataset{
		Name:   filepath.Base(path),
		Size:   info.Size(),
		Reader: file,
	}, file, nil
}

func badge(tier columns.Tier) string {
	switch tier {
	case columns.TierHigh:
		return recommendedBadge("[" + tier.Badge() + "]")
	case columns.TierMedium:
		return suggestedBadge("[" + tier.Badge() + "]")
	default:
		return ""
	}
}

// printColumns lists columns in display order with tier badges and hints.
// Selected columns are marked when selection is non-empty.
func printColumns(w io.Writer, names []string, selection columns.Selection) {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	for _, name := range columns.RankForDisplay(names) {
		tier := columns.Classify(name)
		mark := " "
		if selection.Contains(name) {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %-*s  %s %s\n", mark, width, name, faint(tier.Hint()), badge(tier))
	}
}
