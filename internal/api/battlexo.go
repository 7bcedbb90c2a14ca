package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"tournament-results/internal/config"
	"tournament-results/internal/constants"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

type BattlexoClient struct {
	baseURL string
	gameID  int
	client  *fasthttp.Client
}

func NewBattlexoClient(cfg *config.Config) *BattlexoClient {
	return &BattlexoClient{
		baseURL: strings.TrimRight(cfg.BattlexoBaseURL, "/"),
		gameID:  cfg.BattlexoGameID,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *BattlexoClient) GetTournamentResult(ctx context.Context, tournamentID string) (*TournamentResultResponse, error) {
	u := fmt.Sprintf("%s/api/v1/core/tournament/result/%s", c.baseURL, url.PathEscape(tournamentID))
	return doRequest[TournamentResultResponse](ctx, c, u)
}

func (c *BattlexoClient) ListTournaments(ctx context.Context, status string, size int) (*TournamentListResponse, error) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("tournamentType", "Prize Pool")
	q.Set("gameId", fmt.Sprint(c.gameID))
	q.Set("size", fmt.Sprint(size))
	q.Set("page", "0")
	u := fmt.Sprintf("%s/api/v1/core/tournament?%s", c.baseURL, q.Encode())
	return doRequest[TournamentListResponse](ctx, c, u)
}

func doRequest[T any](ctx context.Context, client *BattlexoClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
