package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vietddude/akashic/internal/core/config"
	"github.com/vietddude/akashic/internal/core/domain"
	"github.com/vietddude/akashic/internal/infra/storage/postgres"
	"github.com/vietddude/akashic/internal/logging"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent capture sessions from the journal",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of sessions to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	logging.Bootstrap()

	cfg, err := config.Read(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("No database configured; the session journal is in memory only")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewSessionRepo(db)
	sessions, err := repo.ListRecent(ctx, statusLimit)
	if err != nil {
		slog.Error("Failed to query sessions", "error", err)
		os.Exit(1)
	}
	counts, err := repo.CountByState(ctx)
	if err != nil {
		slog.Error("Failed to count sessions", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "TARGET\tRULE\tSTATE\tATTEMPTS\tSTARTED\tUPDATED\tLAST ERROR")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			s.Target,
			s.Rule,
			s.State,
			s.Attempts,
			humanize.Time(s.StartedAt),
			humanize.Time(s.UpdatedAt),
			s.LastError,
		)
	}
	_ = w.Flush()

	states := make([]string, 0, len(counts))
	for state := range counts {
		states = append(states, string(state))
	}
	sort.Strings(states)
	fmt.Println()
	for _, state := range states {
		fmt.Printf("%-16s %s\n", state, humanize.Comma(int64(counts[domain.SessionState(state)])))
	}
}
