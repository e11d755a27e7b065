package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/models"
)

var (
	historyPage     int
	historyPageSize int
	historyKind     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List logged file operations",
	Long:  `List operations from the log, newest first.`,
	Args:  cobra.NoArgs,
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyPage, "page", 1, "Page number")
	historyCmd.Flags().IntVar(&historyPageSize, "page-size", 50, "Operations per page")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "Filter by kind (MOVE or RENAME)")
}

func runHistory(cmd *cobra.Command, args []string) {
	kind := models.OperationKind(historyKind)
	if historyKind != "" && !kind.Valid() {
		exitError("unknown kind %q, want MOVE or RENAME", historyKind)
	}

	c := initContext()
	defer c.Close()

	ops, err := c.Store.List(historyPage, historyPageSize, kind)
	if err != nil {
		exitError("failed to list operations: %v", err)
	}

	if len(ops) == 0 {
		fmt.Println("No operations.")
		return
	}

	for _, op := range ops {
		fmt.Printf("%6d  %s  %-6s  %s  %s -> %s\n",
			op.ID,
			op.Timestamp.Local().Format("2006-01-02 15:04"),
			op.Kind,
			statusLabel(op.Status),
			op.SourcePath,
			op.TargetPath,
		)
	}

	total, err := c.Store.Count(kind)
	if err == nil && total > len(ops) {
		fmt.Printf("\n%d of %d operations (use --page to see more)\n", len(ops), total)
	}
}

// statusLabel renders a status with a fixed width so columns line up.
func statusLabel(s models.OperationStatus) string {
	switch s {
	case models.StatusCompleted:
		return color.GreenString("%-13s", s)
	case models.StatusReverted:
		return color.CyanString("%-13s", s)
	case models.StatusRevertFailed:
		return color.RedString("%-13s", s)
	default:
		return fmt.Sprintf("%-13s", s)
	}
}
