package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// exportCmd dumps everything the API will give the caller as JSONL, in the
// same record-per-line shape the server's scheduled backups use. Requires
// an admin session (schedules are only listable globally by admins).
var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Dump units, users, and schedules as JSONL",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		units, err := rosterClient.ListUnits(cmd.Context(), false)
		if err != nil {
			return err
		}
		users, err := rosterClient.ListUsers(cmd.Context(), false)
		if err != nil {
			return err
		}
		schedules, err := rosterClient.ListSchedules(cmd.Context())
		if err != nil {
			return err
		}

		f := os.Stdout
		if out != "" && out != "-" {
			f, err = os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
		}

		enc := json.NewEncoder(f)
		write := func(typ string, data any) error {
			return enc.Encode(map[string]any{"type": typ, "data": data})
		}

		if err := write("header", map[string]any{
			"version":        1,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"unit_count":     len(units),
			"user_count":     len(users),
			"schedule_count": len(schedules),
		}); err != nil {
			return err
		}
		for _, u := range units {
			if err := write("unit", u); err != nil {
				return err
			}
		}
		for _, u := range users {
			if err := write("user", u); err != nil {
				return err
			}
		}
		for _, s := range schedules {
			if err := write("schedule", s); err != nil {
				return err
			}
		}

		if out != "" && out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d units, %d users, %d schedules to %s\n",
				len(units), len(users), len(schedules), out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("out", "-", "output file (- for stdout)")
}
