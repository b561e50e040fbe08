package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	logFormat    string
	csvPath      string
	jsonlPath    string
	sqlitePath   string
	artifactsDir string
	boltPath     string
)

var rootCmd = &cobra.Command{
	Use:           "linkfinder",
	Short:         "linkfinder: keyword to URL resolution",
	Long:          "Resolve keywords to URLs by substring search, with a random forest fallback trained offline.",
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&csvPath, "csv", "", "dataset CSV file (keyword,url)")
	pf.StringVar(&jsonlPath, "jsonl", "", "dataset JSONL file")
	pf.StringVar(&sqlitePath, "sqlite", "", "dataset sqlite database")
	pf.StringVar(&artifactsDir, "artifacts", "", "artifact directory")
	pf.StringVar(&boltPath, "bolt", "", "artifact bbolt database")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(serveCmd)
}
