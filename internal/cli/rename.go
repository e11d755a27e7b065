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

var renameMode string

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a file in place, recorded in the operation log",
	Args:  cobra.ExactArgs(2),
	Run:   runRename,
}

func init() {
	renameCmd.Flags().StringVar(&renameMode, "mode", "", "Provenance tag recorded with the operation")
}

func runRename(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	abs, err := filepath.Abs(args[0])
	if err != nil {
		exitError("invalid path %q: %v", args[0], err)
	}

	renamer := organize.NewRenamer(c.Store, slog.New(slog.DiscardHandler))
	result, err := renamer.Execute(context.Background(), renameMode, []organize.RenameRequest{
		{Path: abs, NewName: args[1]},
	})
	if err != nil {
		exitError("rename failed: %v", err)
	}

	if result.Failed > 0 {
		exitError("%s", result.Errors[0])
	}

	color.Green("Renamed %s -> %s", filepath.Base(abs), args[1])
	fmt.Printf("batch %s (undo with 'shelf undo --batch %s')\n", result.BatchID, result.BatchID)
}
