package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var diffAsJSON bool

// diffCmd computes and prints the diff without applying it.
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the source of truth against the database",
	Long: `Loads the source-of-truth snapshot and the deployed state from the
database, computes the structured diff, and prints it without applying
anything.

Examples:
  # Human-readable report
  inventory-sync diff

  # Machine-readable JSON
  inventory-sync diff --json`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffAsJSON, "json", false, "Print the diff as JSON instead of a report")
	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	_, _, svc, err := setup()
	if err != nil {
		return err
	}

	d, err := svc.Diff(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute diff: %w", err)
	}

	if diffAsJSON {
		serialized, err := d.Serialize()
		if err != nil {
			return fmt.Errorf("failed to serialize diff: %w", err)
		}
		fmt.Println(string(serialized))
		return nil
	}

	fmt.Print(d.String())
	if !d.HasChanges() {
		fmt.Println("source and database are in sync")
	}
	return nil
}
