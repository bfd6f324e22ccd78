package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vitalsboard/internal/db"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass now and exit",
	Long: `Run one collection pass over every configured site and exit.

Use this from an external scheduler instead of the in-process worker.
Exits non-zero only if the run was interrupted; per-site append failures are
reported but do not fail the command.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open row store: %w", err)
	}
	defer store.Close()

	c, err := newCollector(ctx, cfg, store, newLogger(), nil)
	if err != nil {
		return err
	}

	sum, err := c.Run(ctx)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Date:     %s\n", sum.Date)
	fmt.Fprintf(out, "Appended: %d %s\n", len(sum.Appended), strings.Join(sum.Appended, ", "))
	if len(sum.Dropped) > 0 {
		fmt.Fprintf(out, "Dropped:  %d %s\n", len(sum.Dropped), strings.Join(sum.Dropped, ", "))
	}
	if err != nil {
		return fmt.Errorf("collection interrupted: %w", err)
	}
	return nil
}
