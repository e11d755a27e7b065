package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/models"
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List operation batches",
	Long: `List batches of operations, newest first. A batch groups all
operations from one action, e.g. one multi-file move.`,
	Args: cobra.NoArgs,
	Run:  runBatches,
}

func runBatches(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	batches, err := c.Store.ListBatches(100)
	if err != nil {
		exitError("failed to list batches: %v", err)
	}

	if len(batches) == 0 {
		fmt.Println("No batches.")
		return
	}

	for _, b := range batches {
		fmt.Printf("%s  %s  %-6s  %3d file(s)  %s\n",
			b.BatchID,
			b.Timestamp.Local().Format("2006-01-02 15:04"),
			b.Kind,
			b.FileCount,
			batchStatusLabel(b.Status),
		)
	}
	fmt.Printf("\nUse 'shelf undo --batch <batch-id>' to revert a whole batch.\n")
}

func batchStatusLabel(s models.BatchStatus) string {
	switch s {
	case models.BatchCompleted:
		return color.GreenString(string(s))
	case models.BatchReverted:
		return color.CyanString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
