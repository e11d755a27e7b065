package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkalnins/shelf/internal/config"
	"github.com/pkalnins/shelf/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the shelf data directory",
	Long: `Create the shelf data directory with a default configuration and
an empty operation-log database. Safe to run on an existing setup.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	cfg, err := config.Init()
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to create database: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize database: %v", err)
	}

	fmt.Printf("Initialized shelf in %s\n", cfg.Path())
}
