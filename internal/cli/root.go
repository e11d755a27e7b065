// Package cli implements the command-line interface for shelf.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/config"
	"github.com/pkalnins/shelf/internal/store"
	"github.com/pkalnins/shelf/internal/undo"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext initializes config and store
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open store: %v", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st}
}

// newEngine builds a revert engine over the context's store. The CLI
// logs only its own output, so engine logging is discarded.
func (c *cmdContext) newEngine() (*undo.Engine, *undo.Tracker) {
	validator := &undo.Validator{VolumeRoots: c.Config.VolumeRoots}
	tracker := undo.NewTracker(time.Minute)
	logger := slog.New(slog.DiscardHandler)
	return undo.NewEngine(c.Store, validator, tracker, logger), tracker
}

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Personal file organizer with a durable undo log",
	Long: `Shelf moves and renames files on your disk and records every
operation in a durable log, so any action can be undone later --
one file at a time or a whole batch at once.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(undoCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
