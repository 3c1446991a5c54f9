package main

import (
	"encoding/json"
	"fmt"
	"os"

	"content-engine/pkg/config"
	app "content-engine/services/content/internal/app"
	"content-engine/services/content/internal/usecase"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "contentctl",
		Short:         "contentctl - operate the content pipeline from the shell",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(expandCmd())
	rootCmd.AddCommand(branchCmd())
	rootCmd.AddCommand(fanoutCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(publishDueCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withPipeline runs fn against a pipeline built from the environment, the
// same way the API server builds it.
func withPipeline(fn func(p usecase.PipelineUseCase) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(application.Pipeline())
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
