package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bonnie/pkg/history"
)

// historyCommand creates the history command.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.settings.openHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				c.printInfo("No installs recorded yet")
				return nil
			}
			for _, rec := range records {
				c.printRecord(rec)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "number of runs to show")
	return cmd
}

func (c *CLI) printRecord(rec *history.Record) {
	c.printTitle("%s  %s", rec.StartedAt.Local().Format(time.DateTime), shortID(rec.ID))
	c.printKeyValue("seeds", strings.Join(rec.Seeds, ", "))
	c.printKeyValue("packages", fmt.Sprintf("%d installed, %d failed", len(rec.Packages)-rec.Failed(), rec.Failed()))
	c.printKeyValue("duration", rec.Duration.Round(time.Millisecond).String())
	if len(rec.WrittenBack) > 0 {
		c.printKeyValue("recorded", strings.Join(rec.WrittenBack, ", "))
	}
	if rec.Error != "" {
		c.printError("%s", rec.Error)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
