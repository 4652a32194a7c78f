package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:     "login <email>",
	Short:   "Authenticate and store the session token",
	GroupID: "session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		resp, err := rosterClient.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		if err := storeSessionToken(serverURL, resp.Token); err != nil {
			return fmt.Errorf("store session token: %w", err)
		}

		scope := "global"
		if resp.User.UnitID != nil {
			scope = *resp.User.UnitID
		}
		fmt.Printf("logged in as %s (%s, scope: %s)\n", resp.User.Email, resp.User.Role, scope)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the authenticated account",
	GroupID: "session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := rosterClient.Me(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(user)
			return nil
		}
		fmt.Printf("ID:     %s\n", user.ID)
		fmt.Printf("Name:   %s\n", user.Name)
		fmt.Printf("Email:  %s\n", user.Email)
		fmt.Printf("Role:   %s\n", user.Role)
		if user.UnitID != nil {
			fmt.Printf("Unit:   %s\n", *user.UnitID)
		} else {
			fmt.Printf("Unit:   (none, global scope)\n")
		}
		return nil
	},
}

// readPassword prompts without echo on a terminal, or reads a line from
// stdin otherwise (for scripted use).
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print(prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
