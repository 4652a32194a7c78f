package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Self-Labs/pmes/internal/client"
	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/ui"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Short:   "Read and edit roster schedules",
	GroupID: "roster",
}

func parseScheduleType(arg string) (model.ScheduleType, error) {
	typ := model.ScheduleType(arg)
	if !typ.IsValid() {
		return "", fmt.Errorf("unknown schedule type %q (periodic, special_duty, daily)", arg)
	}
	return typ, nil
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show a unit's schedule document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := parseScheduleType(args[0])
		if err != nil {
			return err
		}
		unitID, _ := cmd.Flags().GetString("unit")

		sched, err := rosterClient.GetSchedule(cmd.Context(), typ, unitID)
		if err != nil {
			return err
		}
		if sched == nil {
			fmt.Println("no schedule saved yet")
			return nil
		}
		printJSON(sched)
		return nil
	},
}

// readScheduleFile parses a schedule document file into a save request.
func readScheduleFile(path, unitID string) (*client.SaveScheduleRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var req client.SaveScheduleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if unitID != "" {
		req.UnitID = unitID
	}
	return &req, nil
}

var scheduleSaveCmd = &cobra.Command{
	Use:   "save <type>",
	Short: "Save a schedule document from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := parseScheduleType(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		unitID, _ := cmd.Flags().GetString("unit")

		req, err := readScheduleFile(file, unitID)
		if err != nil {
			return err
		}
		sched, err := rosterClient.SaveSchedule(cmd.Context(), typ, req)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sched)
			return nil
		}
		fmt.Printf("schedule saved for %s (last edit by %s at %s)\n",
			sched.UnitID, sched.UpdatedByName, sched.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// scheduleEditCmd watches a document file and writes it through the
// auto-save coordinator: rapid file saves collapse into one request after
// the quiet period, the same way the web editor batches keystrokes.
var scheduleEditCmd = &cobra.Command{
	Use:   "edit <type>",
	Short: "Watch a document file and auto-save it on change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := parseScheduleType(args[0])
		if err != nil {
			return err
		}
		file, _ := cmd.Flags().GetString("file")
		unitID, _ := cmd.Flags().GetString("unit")
		delay, _ := cmd.Flags().GetDuration("delay")

		if _, err := os.Stat(file); err != nil {
			return err
		}

		coord := client.NewCoordinator(rosterClient, typ,
			client.WithSaveDelay(delay),
			client.WithOnChange(printSaveStatus))
		defer coord.Close()

		fmt.Printf("watching %s; save the file to upload, Ctrl-C to stop\n", file)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		var lastMod time.Time
		if info, err := os.Stat(file); err == nil {
			lastMod = info.ModTime()
		}

		for {
			select {
			case <-sigCh:
				st := coord.Status()
				if st.State == client.StatePending || st.State == client.StateSaving {
					fmt.Println("\nstopping; unsent edits are discarded")
				} else {
					fmt.Println("\nstopping")
				}
				return nil
			case <-ticker.C:
				info, err := os.Stat(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "stat %s: %v\n", file, err)
					continue
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()

				req, err := readScheduleFile(file, unitID)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					continue
				}
				coord.Edit(req)
			}
		}
	},
}

// printSaveStatus renders a coordinator state transition on one line.
func printSaveStatus(st client.SaveStatus) {
	switch st.State {
	case client.StatePending:
		fmt.Println(ui.RenderMuted("· pending"))
	case client.StateSaving:
		fmt.Println(ui.RenderMuted("· saving..."))
	case client.StateSaved:
		fmt.Println(ui.RenderSuccess(fmt.Sprintf("✓ saved at %s (last edit by %s)",
			st.LastSaved.Format("15:04:05"), st.LastEditor)))
	case client.StateError:
		fmt.Println(ui.RenderError(fmt.Sprintf("✗ save failed: %v (edit again to retry)", st.Err)))
	}
}

func init() {
	scheduleShowCmd.Flags().String("unit", "", "target unit id (default: own unit)")

	scheduleSaveCmd.Flags().String("file", "", "schedule document JSON file (required)")
	scheduleSaveCmd.Flags().String("unit", "", "target unit id (default: own unit)")
	_ = scheduleSaveCmd.MarkFlagRequired("file")

	scheduleEditCmd.Flags().String("file", "", "schedule document JSON file (required)")
	scheduleEditCmd.Flags().String("unit", "", "target unit id (default: own unit)")
	scheduleEditCmd.Flags().Duration("delay", client.DefaultSaveDelay, "auto-save quiet period")
	_ = scheduleEditCmd.MarkFlagRequired("file")

	scheduleCmd.AddCommand(scheduleShowCmd)
	scheduleCmd.AddCommand(scheduleSaveCmd)
	scheduleCmd.AddCommand(scheduleEditCmd)
}
