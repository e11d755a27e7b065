package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/models"
	"github.com/pkalnins/shelf/internal/undo"
)

var undoBatchID string

var undoCmd = &cobra.Command{
	Use:   "undo <operation-id>",
	Short: "Undo a logged operation or a whole batch",
	Long: `Undo a single operation by id, or every operation of a batch in
reverse order with --batch. A batch undo continues past individual
failures and reports how many operations were reverted, failed, or
had already been reverted.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runUndo,
}

func init() {
	undoCmd.Flags().StringVar(&undoBatchID, "batch", "", "Undo all operations of this batch")
}

func runUndo(cmd *cobra.Command, args []string) {
	if (len(args) == 0) == (undoBatchID == "") {
		exitError("specify either an operation id or --batch <batch-id>")
	}

	c := initContext()
	defer c.Close()

	engine, tracker := c.newEngine()
	defer tracker.Stop()

	if undoBatchID != "" {
		runUndoBatch(c, engine)
		return
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		exitError("operation id must be an integer: %q", args[0])
	}

	outcome, err := engine.RevertOne(context.Background(), id)
	if err != nil {
		exitError("failed to undo operation %d: %v", id, err)
	}

	switch outcome.Result {
	case models.Reverted:
		color.Green("Operation %d reverted.", id)
	case models.AlreadyReverted:
		color.Yellow("Operation %d was already reverted.", id)
	case models.RevertFailed:
		color.Red("Operation %d could not be reverted: %s", id, outcome.Message)
	}
}

func runUndoBatch(c *cmdContext, engine *undo.Engine) {
	outcome, err := engine.RevertBatchWait(context.Background(), undoBatchID)
	if err != nil {
		exitError("failed to undo batch %s: %v", undoBatchID, err)
	}

	fmt.Printf("%d reverted, %d failed, %d already reverted\n",
		outcome.Reverted, outcome.Failed, outcome.AlreadyReverted)

	if len(outcome.Errors) > 0 {
		yellow := color.New(color.FgYellow)
		yellow.Println("Failures:")
		for _, e := range outcome.Errors {
			yellow.Printf("  - %s\n", e)
		}
	}
}
