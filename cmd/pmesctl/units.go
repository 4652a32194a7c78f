package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Self-Labs/pmes/internal/client"
	"github.com/Self-Labs/pmes/internal/model"
	"github.com/Self-Labs/pmes/internal/ui"
)

var unitsCmd = &cobra.Command{
	Use:     "units",
	Short:   "Manage the unit hierarchy",
	GroupID: "admin",
}

var unitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List units",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		units, err := rosterClient.ListUnits(cmd.Context(), !all)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(units)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSIGLA\tTIPO\tPARENT\tACTIVE")
		for _, u := range units {
			parent := ""
			if u.ParentID != nil {
				parent = *u.ParentID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Sigla, u.Type, parent, u.Active)
		}
		return w.Flush()
	},
}

var unitsTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the unit hierarchy as a tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := rosterClient.UnitTree(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(tree)
			return nil
		}
		for _, root := range tree {
			printUnitNode(root, 0)
		}
		return nil
	},
}

func printUnitNode(node *model.UnitNode, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s %s\n", indent, ui.RenderAccent(node.Sigla), ui.RenderMuted("("+string(node.Type)+", "+node.ID+")"))
	for _, child := range node.Children {
		printUnitNode(child, depth+1)
	}
}

var unitsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a unit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigla, _ := cmd.Flags().GetString("sigla")
		tipo, _ := cmd.Flags().GetString("tipo")
		parent, _ := cmd.Flags().GetString("parent")

		req := &client.CreateUnitRequest{Sigla: sigla, Type: tipo}
		if parent != "" {
			req.ParentID = &parent
		}
		unit, err := rosterClient.CreateUnit(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(unit)
			return nil
		}
		fmt.Printf("unit %s created (%s)\n", unit.Sigla, unit.ID)
		return nil
	},
}

var unitsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deactivate a unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rosterClient.DeleteUnit(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("unit %s deactivated\n", args[0])
		return nil
	},
}

func init() {
	unitsListCmd.Flags().Bool("all", false, "include deactivated units")
	unitsCreateCmd.Flags().String("sigla", "", "unit abbreviation (required)")
	unitsCreateCmd.Flags().String("tipo", "", "unit type: CPOR, CPOE, BPM, CIA_IND, CIA, COPOM, PELOTAO, OUTRO")
	unitsCreateCmd.Flags().String("parent", "", "parent unit id")
	_ = unitsCreateCmd.MarkFlagRequired("sigla")
	_ = unitsCreateCmd.MarkFlagRequired("tipo")

	unitsCmd.AddCommand(unitsListCmd)
	unitsCmd.AddCommand(unitsTreeCmd)
	unitsCmd.AddCommand(unitsCreateCmd)
	unitsCmd.AddCommand(unitsDeleteCmd)
}
