package main

import (
	"fmt"
	"os"
	"unifeed/internal/di"
	"unifeed/internal/structures"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "unifeed",
	Short: "Unified timeline aggregation service",
	Long: `unifeed serves one merged, deduplicated timeline per viewer built from
posts, polls, activities, videos, movies and reshares, and applies reactions,
bookmarks, comments and deletes optimistically.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cleanup, err := di.InitApp(&flags)
		if err != nil {
			return err
		}
		cleanup()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "also log to the console")
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
