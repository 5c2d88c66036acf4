package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dryRunSync bool
	yesConfirm bool
)

// syncCmd computes the diff and applies it to the database.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply the source of truth to the database",
	Long: `Loads the source-of-truth snapshot and the deployed state from the
database, computes the structured diff, and applies it in dependency order:
parents are created before their children, children are deleted before
their parents.

Examples:
  # Report what would change, apply nothing
  inventory-sync sync --dry-run

  # Apply with interactive confirmation
  inventory-sync sync

  # Apply without prompting (non-interactive)
  inventory-sync sync --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Compute and report the diff without applying it")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, l, svc, err := setup()
	if err != nil {
		return err
	}

	l.Info("Starting inventory sync", zap.Bool("dry_run", dryRunSync))

	// Always plan first so the user confirms against the actual change set.
	d, _, err := svc.Sync(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to compute diff: %w", err)
	}

	fmt.Print(d.String())
	if !d.HasChanges() {
		l.Info("Source and database are in sync. Nothing to apply.")
		return nil
	}

	if dryRunSync {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	_, summary, err := svc.Sync(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to apply diff: %w", err)
	}

	l.Info("Sync finished",
		zap.String("run_id", summary.RunID),
		zap.Int("creates", summary.Creates.Succeeded),
		zap.Int("updates", summary.Updates.Succeeded),
		zap.Int("deletes", summary.Deletes.Succeeded),
		zap.Int("failures", len(summary.Failures)),
	)

	for _, failure := range summary.Failures {
		l.Warn("Element failed",
			zap.String("action", string(failure.Action)),
			zap.String("type", failure.Type),
			zap.String("unique_id", failure.ID),
			zap.String("message", failure.Message),
		)
	}

	if len(summary.Failures) > 0 {
		return fmt.Errorf("%d elements failed to apply", len(summary.Failures))
	}
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to apply the changes above: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
