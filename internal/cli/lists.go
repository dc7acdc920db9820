package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/akashic/internal/core/config"
	"github.com/vietddude/akashic/internal/core/lists"
	"github.com/vietddude/akashic/internal/logging"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Load and summarize the tracking lists",
	Run:   runLists,
}

func init() {
	rootCmd.AddCommand(listsCmd)
}

func runLists(cmd *cobra.Command, args []string) {
	logging.Bootstrap()

	cfg, err := config.Read(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	sets, err := lists.Load(cfg.Lists)
	if err != nil {
		slog.Error("Failed to load lists", "error", err)
		os.Exit(1)
	}

	archive, check, keywords := sets.Sizes()
	fmt.Printf("archive   %-40s %d channels\n", cfg.Lists.Archive, archive)
	fmt.Printf("check     %-40s %d channels\n", cfg.Lists.Check, check)
	fmt.Printf("keywords  %-40s %d keywords\n", cfg.Lists.Keywords, keywords)
}
