package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/genrefreq/internal/logging"
)

var (
	configPath string
	uri        string
	user       string
	password   string
	database   string
	logLevel   string
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Op().Debug("No .env file found, using defaults", "error", err)
	}

	rootCmd := &cobra.Command{
		Use:          "genres",
		Short:        "Genre frequency queries against a graph database",
		Long:         "Counts the genres watched by users in a given state, most frequent first",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (TOML or YAML)")
	rootCmd.PersistentFlags().StringVar(&uri, "uri", "", "Bolt URI, e.g. neo4j://localhost:7687")
	rootCmd.PersistentFlags().StringVar(&user, "user", "", "Database user")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Database password")
	rootCmd.PersistentFlags().StringVar(&database, "database", "", "Target database name")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		queryCmd(),
		namesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
