// pmesctl is the operator CLI for the roster service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Self-Labs/pmes/internal/client"
)

var (
	serverURL  string
	jsonOutput bool

	rosterClient client.RosterClient
	httpClient   *client.HTTPClient
)

func defaultServerURL() string {
	if s := os.Getenv("PMES_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func sessionToken() string {
	if t := os.Getenv("PMES_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "pmesctl <command>",
	Short: "CLI client for the roster service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		httpClient = client.NewHTTPClient(serverURL, sessionToken())
		rosterClient = httpClient
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rosterClient != nil {
			rosterClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "server base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Session:"},
		&cobra.Group{ID: "roster", Title: "Rosters:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Session
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Rosters
	rootCmd.AddCommand(scheduleCmd)

	// Administration
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(usersCmd)

	// System
	rootCmd.AddCommand(remoteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
