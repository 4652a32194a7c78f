package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Short:   "Manage accounts",
	GroupID: "admin",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, _ := cmd.Flags().GetBool("pending")

		users, err := rosterClient.ListUsers(cmd.Context(), pending)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(users)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tUNIT\tACTIVE")
		for _, u := range users {
			unit := ""
			if u.UnitID != nil {
				unit = *u.UnitID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Role, unit, u.Active)
		}
		return w.Flush()
	},
}

var usersApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending signup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := rosterClient.ApproveUser(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("user %s approved (%s)\n", user.Email, user.ID)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rosterClient.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("user %s deleted\n", args[0])
		return nil
	},
}

func init() {
	usersListCmd.Flags().Bool("pending", false, "only accounts awaiting approval")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersApproveCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}
