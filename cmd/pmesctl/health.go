package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check server health",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := rosterClient.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("server at %s is unreachable: %w", serverURL, err)
		}
		fmt.Printf("server at %s reports %s\n", serverURL, status)
		return nil
	},
}
