package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"tournament-results/internal/api"
	"tournament-results/internal/auth"
	"tournament-results/internal/constants"
	"tournament-results/internal/domain"
	"tournament-results/internal/engine"
	"tournament-results/internal/service"
	"tournament-results/internal/session"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultsServer struct {
	results     *service.ResultService
	tournaments *service.TournamentService
	sessions    *session.Store
	gate        *auth.Gate
	logger      zerolog.Logger
}

func NewResultsServer(
	results *service.ResultService,
	tournaments *service.TournamentService,
	sessions *session.Store,
	gate *auth.Gate,
	logger zerolog.Logger,
) *ResultsServer {
	return &ResultsServer{
		results:     results,
		tournaments: tournaments,
		sessions:    sessions,
		gate:        gate,
		logger:      logger,
	}
}

// Register mounts the API under /api/v1 on r.
func (s *ResultsServer) Register(r *mux.Router) {
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/login", s.login).Methods(http.MethodPost)
	v1.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{id}/runs", s.run).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/runs", s.history).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/import", s.importResults).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/standings", s.standings).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/export", s.export).Methods(http.MethodGet)
	v1.HandleFunc("/links/extract", s.extractLinks).Methods(http.MethodPost)
	v1.HandleFunc("/tournaments", s.findTournaments).Methods(http.MethodGet)
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Enabled   bool       `json:"enabled"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (s *ResultsServer) login(w http.ResponseWriter, r *http.Request) {
	if !s.gate.Enabled() {
		writeJSON(w, http.StatusOK, loginResponse{})
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	token, expires, err := s.gate.Login(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Enabled: true, Token: token, ExpiresAt: &expires})
}

type sessionResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastPeriod int       `json:"lastPeriod,omitempty"`
	SourceFile string    `json:"sourceFile,omitempty"`
}

func (s *ResultsServer) createSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	zerolog.Ctx(r.Context()).Info().Str("session_id", sess.ID).Msg("session created")
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, CreatedAt: sess.CreatedAt})
}

func (s *ResultsServer) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *ResultsServer) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

type runRequest struct {
	TournamentIDs []string `json:"tournamentIds"`
	Links         string   `json:"links"`
	Period        int      `json:"period"`
	Mode          string   `json:"mode"`
	Identity      string   `json:"identity"`
	SortBy        string   `json:"sortBy"`
}

func (s *ResultsServer) run(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	mode, strategy, err := parseModeAndIdentity(body.Mode, body.Identity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.results.Run(r.Context(), sess, service.RunRequest{
		TournamentIDs: body.TournamentIDs,
		Links:         body.Links,
		Period:        body.Period,
		Mode:          mode,
		Strategy:      strategy,
		SortBy:        domain.Metric(body.SortBy),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type importResponse struct {
	FileName  string            `json:"fileName"`
	Mode      domain.MergeMode  `json:"mode"`
	Teams     int               `json:"teams"`
	Periods   []int             `json:"periods,omitempty"`
	Standings []domain.Standing `json:"standings"`
}

func (s *ResultsServer) importResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxImportBytes+1<<20)
	if err := r.ParseMultipartForm(constants.MaxImportBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file: %v", errBadRequest, err))
		return
	}
	defer file.Close()

	q := r.URL.Query()
	mode, strategy, err := parseModeAndIdentity(q.Get("mode"), q.Get("identity"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	ledger, err := s.results.Import(r.Context(), sess, file, service.ImportRequest{
		FileName: header.Filename,
		Mode:     mode,
		Strategy: strategy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	standings, err := engine.Rank(ledger, domain.MetricTotalScore)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		FileName:  header.Filename,
		Mode:      ledger.Mode,
		Teams:     ledger.Len(),
		Periods:   ledger.Periods(),
		Standings: standings,
	})
}

type standingsResponse struct {
	Session   sessionResponse   `json:"session"`
	Mode      domain.MergeMode  `json:"mode,omitempty"`
	Periods   []int             `json:"periods,omitempty"`
	Standings []domain.Standing `json:"standings"`
}

func (s *ResultsServer) standings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	standings, err := s.results.Standings(sess, domain.Metric(r.URL.Query().Get("sortBy")))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := standingsResponse{
		Session: sessionResponse{
			ID:         sess.ID,
			CreatedAt:  sess.CreatedAt,
			LastPeriod: sess.LastPeriod(),
			SourceFile: sess.SourceFile(),
		},
		Standings: standings,
	}
	if l := sess.Snapshot(); l != nil {
		resp.Mode = l.Mode
		resp.Periods = l.Periods()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *ResultsServer) export(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	out, err := s.results.Export(sess, domain.Metric(r.URL.Query().Get("sortBy")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (s *ResultsServer) history(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	limit := constants.RunHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: invalid limit %q", errBadRequest, v))
			return
		}
		limit = min(n, constants.RunHistoryLimit)
	}
	runs, err := s.results.History(r.Context(), sess, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	IDs   []string `json:"ids"`
	Links []string `json:"links"`
}

func (s *ResultsServer) extractLinks(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ids := api.ExtractTournamentIDs(req.Text)
	links := make([]string, len(ids))
	for i, id := range ids {
		links[i] = api.TournamentLink(id)
	}
	writeJSON(w, http.StatusOK, extractResponse{IDs: ids, Links: links})
}

func (s *ResultsServer) findTournaments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slot, err := service.ParseSlot(q.Get("slot"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	loc := s.tournaments.Location()
	date := time.Now().In(loc)
	if v := q.Get("date"); v != "" {
		date, err = time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid date %q", errBadRequest, v))
			return
		}
	}

	links, err := s.tournaments.Find(r.Context(), date, slot)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errUpstream, err))
		return
	}
	if links == nil {
		links = []service.TournamentLink{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":         date.Format(time.DateOnly),
		"slot":         slot,
		"tournaments":  links,
		"announcement": s.tournaments.Announcement(slot, links),
	})
}

func parseModeAndIdentity(mode, identity string) (domain.MergeMode, domain.IdentityStrategy, error) {
	var (
		m   domain.MergeMode
		id  domain.IdentityStrategy
		err error
	)
	if mode != "" {
		if m, err = domain.ParseMergeMode(mode); err != nil {
			return "", "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if identity != "" {
		if id, err = domain.ParseIdentityStrategy(identity); err != nil {
			return "", "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	return m, id, nil
}
