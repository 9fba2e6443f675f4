package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vahanai/docsbot/internal/config"
)

var version = "dev"

var (
	noColor    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "docsbot",
	Short:         "Documentation chatbot backed by a local knowledge base",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig resolves the config file path: --config flag, then
// DOCSBOT_CONFIG, then ./docsbot.yaml when present, then pure defaults.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("DOCSBOT_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("docsbot.yaml"); err == nil {
			path = "docsbot.yaml"
		}
	}
	return config.Load(path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(interactionsCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
