package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "shorts <url-or-path>",
		Short:        "Cut vertical highlight shorts from a long-form video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("out", "shorts", "Output directory")
	root.Flags().Int("clips", 3, "Number of clips")
	root.Flags().Int("retries", 3, "Highlight selection retries")
	root.Flags().Int("chunk", 300, "Transcription chunk duration in seconds")
	root.Flags().Int("workers", 2, "Concurrent clip workers")
	root.Flags().String("cache-dir", ".cache", "Cache directory")
	root.Flags().String("manual", "", "Path to a segments JSON consumed instead of the model")
	root.Flags().Bool("captions", false, "Burn captions into the clips")
	root.Flags().String("logo", "", "Path to a logo image to overlay")

	root.AddCommand(listCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
