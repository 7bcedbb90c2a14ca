package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"tournament-results/internal/api"
	"tournament-results/internal/database"
	"tournament-results/internal/domain"
	"tournament-results/internal/engine"
	"tournament-results/internal/metrics"
	"tournament-results/internal/repository"
	"tournament-results/internal/service"
	"tournament-results/internal/session"
	"tournament-results/internal/sheet"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type runOptions struct {
	linksFile string
	ids       []string
	mode      string
	identity  string
	day       int
	previous  string
	sortBy    string
	outDir    string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch tournament results, merge them and write the standings workbook",
		Example: `  resultgen run --links-file day2.txt --mode per-day --day 2 --previous tournament_results_2025-03-10_day1.xlsx
  resultgen run --id 64f1a2b3c4d5e6f7a8b9c0d1 --id 64f1a2b3c4d5e6f7a8b9c0d2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAggregation(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.linksFile, "links-file", "", "file with Battlexo tournament links, - for stdin")
	f.StringSliceVar(&opts.ids, "id", nil, "tournament ID, repeatable")
	f.StringVar(&opts.mode, "mode", string(domain.ModeCumulative), "merge mode: per-day or cumulative")
	f.StringVar(&opts.identity, "identity", "", "team identity: id or name (defaults by mode)")
	f.IntVar(&opts.day, "day", 0, "day number for per-day mode")
	f.StringVar(&opts.previous, "previous", "", "previously exported workbook to continue from")
	f.StringVar(&opts.sortBy, "sort", string(domain.MetricTotalScore), "ranking metric: totalScore or totalMatches")
	f.StringVar(&opts.outDir, "out", ".", "directory for the exported workbook")
	return cmd
}

func runAggregation(ctx context.Context, stdout io.Writer, opts runOptions) error {
	log := zerolog.Ctx(ctx)

	mode, err := domain.ParseMergeMode(opts.mode)
	if err != nil {
		return err
	}
	var strategy domain.IdentityStrategy
	if opts.identity != "" {
		if strategy, err = domain.ParseIdentityStrategy(opts.identity); err != nil {
			return err
		}
	}
	metric, err := engine.ParseMetric(opts.sortBy)
	if err != nil {
		return err
	}

	links, err := readInput(opts.linksFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*log)
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBPath, *log)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := service.NewResultService(
		api.NewBattlexoClient(cfg),
		repository.NewResultCacheRepository(db, *log),
		repository.NewRunRepository(db, *log),
		metrics.New(),
		service.ResultOptions{CacheTTL: cfg.CacheTTL, PeriodLabel: cfg.PeriodLabel},
		*log,
	)

	sess := session.New()
	if opts.previous != "" {
		if err := importPrevious(ctx, svc, sess, opts.previous, mode, strategy); err != nil {
			return err
		}
	}

	report, err := svc.Run(ctx, sess, service.RunRequest{
		TournamentIDs: opts.ids,
		Links:         links,
		Period:        opts.day,
		Mode:          mode,
		Strategy:      strategy,
		SortBy:        metric,
	})
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		log.Warn().Str("tournament_id", f.TournamentID).Str("error", f.Error).Msg("tournament skipped")
	}

	if err := printStandings(stdout, sess.Snapshot(), report.Standings, cfg.PeriodLabel); err != nil {
		return err
	}

	out, err := svc.Export(sess, metric)
	if err != nil {
		return err
	}
	path := filepath.Join(opts.outDir, out.FileName)
	if err := os.WriteFile(path, out.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().
		Str("file", path).
		Int("teams", len(report.Standings)).
		Int("failed", len(report.Failures)).
		Msg("results exported")
	return nil
}

func importPrevious(ctx context.Context, svc *service.ResultService, sess *session.Session, path string, mode domain.MergeMode, strategy domain.IdentityStrategy) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open previous results: %w", err)
	}
	defer f.Close()

	_, err = svc.Import(ctx, sess, f, service.ImportRequest{
		FileName: filepath.Base(path),
		Mode:     mode,
		Strategy: strategy,
	})
	return err
}

func printStandings(w io.Writer, ledger *domain.MergedLedger, standings []domain.Standing, periodLabel string) error {
	if ledger == nil {
		return nil
	}
	table := sheet.BuildTable(ledger, standings, periodLabel)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(table.Header, "\t"))
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func readInput(path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read links file: %w", err)
	}
	return string(b), nil
}
