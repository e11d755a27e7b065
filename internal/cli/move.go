package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/organize"
)

var moveDest string

var moveCmd = &cobra.Command{
	Use:   "move <source>...",
	Short: "Move files into a directory, recorded as one batch",
	Long: `Move one or more files into a destination directory. Every move is
recorded in the operation log under a shared batch id, so the whole
action can be undone with 'shelf undo --batch'.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runMove,
}

func init() {
	moveCmd.Flags().StringVar(&moveDest, "dest", "", "Destination directory (required)")
	moveCmd.MarkFlagRequired("dest")
}

func runMove(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	dest, err := filepath.Abs(moveDest)
	if err != nil {
		exitError("invalid destination: %v", err)
	}

	reqs := make([]organize.MoveRequest, 0, len(args))
	for _, src := range args {
		abs, err := filepath.Abs(src)
		if err != nil {
			exitError("invalid source path %q: %v", src, err)
		}
		reqs = append(reqs, organize.MoveRequest{SourcePath: abs, TargetDir: dest})
	}

	mover := organize.NewMover(c.Store, slog.New(slog.DiscardHandler))
	result, err := mover.Execute(context.Background(), reqs)
	if err != nil {
		exitError("move failed: %v", err)
	}

	color.Green("%d file(s) moved to %s", result.Completed, dest)
	for _, e := range result.Errors {
		color.Yellow("  skipped %s", e)
	}
	fmt.Printf("batch %s (undo with 'shelf undo --batch %s')\n", result.BatchID, result.BatchID)
}
