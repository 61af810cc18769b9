package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/imagepull/internal/logging"
	"github.com/spf13/cobra"
)

const (
	envServerURL = "IMAGEPULL_SERVER_URL"
	envOutputDir = "IMAGEPULL_OUTPUT_DIR"
	envLogLevel  = "IMAGEPULL_LOG_LEVEL"
	envLogFormat = "IMAGEPULL_LOG_FORMAT"

	defaultServerURL = "http://localhost:8000"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "imagepull",
		Short: "Retrieve images referenced by spreadsheet columns",
		Long: `Imagepull uploads a CSV or Excel dataset to an image extraction service,
suggests which columns hold image URLs, and saves the retrieved images
locally in one folder per column.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			return logging.Setup(
				flagOrEnv(cmd, "log-level", envLogLevel),
				flagOrEnv(cmd, "log-format", envLogFormat),
			)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(newColumnsCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// flagOrEnv prefers an explicitly set flag, then the environment, then the
// flag's default
func flagOrEnv(cmd *cobra.Command, name, key string) string {
	value, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return value
	}
	return envOr(key, value)
}
