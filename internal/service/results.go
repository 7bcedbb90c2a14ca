package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"tournament-results/internal/api"
	"tournament-results/internal/constants"
	"tournament-results/internal/domain"
	"tournament-results/internal/engine"
	"tournament-results/internal/metrics"
	"tournament-results/internal/session"
	"tournament-results/internal/sheet"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyInput       = errors.New("no tournament IDs supplied")
	ErrAllFetchesFailed = errors.New("failed to fetch any tournament results")
	ErrNoResults        = errors.New("no results to export")
)

type ResultSource interface {
	GetTournamentResult(ctx context.Context, tournamentID string) (*api.TournamentResultResponse, error)
}

type ResultCache interface {
	Get(ctx context.Context, tournamentID string, ttl time.Duration) ([]byte, bool, error)
	Put(ctx context.Context, tournamentID string, payload []byte, fetchedAt time.Time) error
}

type RunStore interface {
	Insert(ctx context.Context, run *domain.Run) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.Run, error)
}

type ResultOptions struct {
	CacheTTL    time.Duration
	PeriodLabel string
}

type ResultService struct {
	source  ResultSource
	cache   ResultCache
	runs    RunStore
	metrics *metrics.Metrics
	opts    ResultOptions
	logger  zerolog.Logger
	now     func() time.Time
}

func NewResultService(source ResultSource, cache ResultCache, runs RunStore, m *metrics.Metrics, opts ResultOptions, logger zerolog.Logger) *ResultService {
	if opts.PeriodLabel == "" {
		opts.PeriodLabel = constants.DefaultPeriodLabel
	}
	return &ResultService{
		source:  source,
		cache:   cache,
		runs:    runs,
		metrics: m,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

type RunRequest struct {
	TournamentIDs []string
	Links         string
	Period        int
	Mode          domain.MergeMode
	Strategy      domain.IdentityStrategy
	SortBy        domain.Metric
}

type FetchFailure struct {
	TournamentID string `json:"tournamentId"`
	Error        string `json:"error"`
}

type RunReport struct {
	RunID     string            `json:"runId"`
	Mode      domain.MergeMode  `json:"mode"`
	Period    int               `json:"period,omitempty"`
	Requested int               `json:"requested"`
	Failures  []FetchFailure    `json:"failures"`
	Records   int               `json:"records"`
	Dropped   int               `json:"dropped"`
	Periods   []int             `json:"periods,omitempty"`
	Standings []domain.Standing `json:"standings"`
}

// Run fetches every requested tournament in turn, aggregates the results
// into one batch and merges it into the session ledger. A tournament that
// fails to fetch is reported and skipped; if all of them fail the session
// is left as it was.
func (s *ResultService) Run(ctx context.Context, sess *session.Session, req RunRequest) (*RunReport, error) {
	ids := requestedIDs(req)
	if len(ids) == 0 {
		return nil, ErrEmptyInput
	}

	metric, err := engine.ParseMetric(string(req.SortBy))
	if err != nil {
		return nil, err
	}

	release, err := sess.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	// the snapshot is only stable while the session is held
	prev := sess.Snapshot()
	mode, strategy := resolveMode(prev, req.Mode, req.Strategy)
	if mode == domain.ModePerDay && req.Period < 1 {
		return nil, engine.ErrInvalidPeriod
	}
	if err := engine.CheckCompatible(prev, mode, strategy); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	log := s.logger.With().Str("session_id", sess.ID).Str("mode", string(mode)).Int("period", req.Period).Logger()
	log.Info().Int("tournaments", len(ids)).Msg("starting aggregation run")

	var records []domain.MatchRecord
	failures := []FetchFailure{}
	for _, id := range ids {
		resp, err := s.fetch(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("tournament_id", id).Msg("failed to fetch tournament results")
			s.metrics.Fetches.WithLabelValues("failed").Inc()
			failures = append(failures, FetchFailure{TournamentID: id, Error: err.Error()})
			continue
		}
		got := engine.Flatten(id, resp)
		log.Debug().Str("tournament_id", id).Int("status", int(resp.Status)).Int("records", len(got)).Msg("tournament results flattened")
		records = append(records, got...)
	}

	if len(failures) == len(ids) {
		s.metrics.Runs.WithLabelValues(string(mode), "failed").Inc()
		log.Error().Int("failed", len(failures)).Msg("all tournament fetches failed")
		return nil, fmt.Errorf("%w: %d of %d requests failed", ErrAllFetchesFailed, len(failures), len(ids))
	}

	batch, dropped := engine.Aggregate(records, strategy, req.Period)
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("dropped records without team identity")
		s.metrics.DroppedRecord.Add(float64(dropped))
	}

	merged, err := engine.Merge(prev, batch, mode, strategy)
	if err != nil {
		s.metrics.Runs.WithLabelValues(string(mode), "failed").Inc()
		return nil, fmt.Errorf("failed to merge results: %w", err)
	}
	sess.Replace(merged, req.Period)

	standings, err := engine.Rank(merged, metric)
	if err != nil {
		return nil, err
	}

	run := &domain.Run{
		SessionID: sess.ID,
		Mode:      mode,
		Period:    req.Period,
		Requested: len(ids),
		Failed:    len(failures),
		Records:   len(records),
		Teams:     merged.Len(),
		CreatedAt: s.now(),
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}

	s.metrics.Runs.WithLabelValues(string(mode), "ok").Inc()
	s.metrics.LedgerTeams.Observe(float64(merged.Len()))
	log.Info().
		Str("run_id", run.ID).
		Int("records", len(records)).
		Int("batch_teams", batch.Len()).
		Int("ledger_teams", merged.Len()).
		Int("failed", len(failures)).
		Msg("aggregation run completed")

	return &RunReport{
		RunID:     run.ID,
		Mode:      mode,
		Period:    req.Period,
		Requested: len(ids),
		Failures:  failures,
		Records:   len(records),
		Dropped:   dropped,
		Periods:   merged.Periods(),
		Standings: standings,
	}, nil
}

func (s *ResultService) fetch(ctx context.Context, id string) (*api.TournamentResultResponse, error) {
	if s.opts.CacheTTL > 0 {
		payload, ok, err := s.cache.Get(ctx, id, s.opts.CacheTTL)
		if err != nil {
			s.logger.Warn().Err(err).Str("tournament_id", id).Msg("failed to read result cache")
		} else if ok {
			var resp api.TournamentResultResponse
			if err := json.Unmarshal(payload, &resp); err == nil {
				s.metrics.Fetches.WithLabelValues("cached").Inc()
				return &resp, nil
			}
			s.logger.Warn().Str("tournament_id", id).Msg("discarding unreadable cached result")
		}
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := s.source.GetTournamentResult(apiCtx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tournament %s: %w", id, err)
	}
	s.metrics.Fetches.WithLabelValues("ok").Inc()

	if s.opts.CacheTTL > 0 && resp.Status == constants.BattlexoSuccessStatus {
		payload, err := json.Marshal(resp)
		if err == nil {
			err = s.cache.Put(ctx, id, payload, s.now())
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("tournament_id", id).Msg("failed to cache tournament results")
		}
	}
	return resp, nil
}

type ImportRequest struct {
	FileName string
	Mode     domain.MergeMode
	Strategy domain.IdentityStrategy
}

// Import replaces the session ledger with one read from a previously
// exported workbook. On any error the session keeps its current ledger.
func (s *ResultService) Import(ctx context.Context, sess *session.Session, r io.Reader, req ImportRequest) (*domain.MergedLedger, error) {
	mode, strategy := resolveMode(nil, req.Mode, req.Strategy)

	release, err := sess.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	ledger, err := sheet.ReadLedger(io.LimitReader(r, constants.MaxImportBytes), sheet.ImportOptions{Mode: mode, Strategy: strategy})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Str("file", req.FileName).Msg("failed to import results workbook")
		return nil, err
	}

	sess.Load(ledger, req.FileName)
	s.logger.Info().
		Str("session_id", sess.ID).
		Str("file", req.FileName).
		Str("mode", string(mode)).
		Int("teams", ledger.Len()).
		Ints("periods", ledger.Periods()).
		Msg("previous results imported")
	return ledger, nil
}

func (s *ResultService) Standings(sess *session.Session, metric domain.Metric) ([]domain.Standing, error) {
	return engine.Rank(sess.Snapshot(), metric)
}

type Export struct {
	FileName string
	Data     []byte
}

func (s *ResultService) Export(sess *session.Session, metric domain.Metric) (*Export, error) {
	ledger := sess.Snapshot()
	if ledger == nil || ledger.Len() == 0 {
		return nil, ErrNoResults
	}
	standings, err := engine.Rank(ledger, metric)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := sheet.Write(&buf, sheet.BuildTable(ledger, standings, s.opts.PeriodLabel)); err != nil {
		return nil, fmt.Errorf("failed to export results: %w", err)
	}
	return &Export{
		FileName: sheet.FileName(s.now(), ledger.Mode, sess.LastPeriod()),
		Data:     buf.Bytes(),
	}, nil
}

func (s *ResultService) History(ctx context.Context, sess *session.Session, limit int) ([]domain.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.runs.ListBySession(ctx, sess.ID, limit)
}

func requestedIDs(req RunRequest) []string {
	var ids []string
	for _, id := range req.TournamentIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return append(ids, api.ExtractTournamentIDs(req.Links)...)
}

// resolveMode fills in what the request left out: the mode of the ledger
// already in the session, else cumulative; the mode's usual identity.
func resolveMode(prev *domain.MergedLedger, mode domain.MergeMode, strategy domain.IdentityStrategy) (domain.MergeMode, domain.IdentityStrategy) {
	if mode == "" {
		mode = domain.ModeCumulative
		if prev != nil {
			mode = prev.Mode
		}
	}
	if strategy == "" {
		strategy = mode.DefaultStrategy()
		if prev != nil && prev.Mode == mode {
			strategy = prev.Strategy
		}
	}
	return mode, strategy
}
