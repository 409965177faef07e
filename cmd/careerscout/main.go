// Package main provides the entry point for the careerscout command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	tablesPath string
)

var rootCmd = &cobra.Command{
	Use:   "careerscout",
	Short: "Career page discovery and job extraction",
	Long: `careerscout finds each company's career page, follows links to hosted ATS portals,
extracts job postings into batch checkpoints and imports them into PostgreSQL.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by env vars and flags)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&tablesPath, "tables", "", "Path to a replacement vendor/override tables JSON file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
