// Command server runs the club portal backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Club portal backend: member leaderboard with a fail-open cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
