package api

import (
	"context"
	"net"
	"testing"
	"time"
	"tournament-results/internal/config"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *BattlexoClient {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })

	c := NewBattlexoClient(&config.Config{BattlexoBaseURL: "http://battlexo.test/", BattlexoGameID: 3})
	c.client.Dial = func(string) (net.Conn, error) { return ln.Dial() }
	return c
}

func TestGetTournamentResult(t *testing.T) {
	var path string
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		path = string(ctx.Path())
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"status":1,"data":{"tournamentResult":[{"result":[{"result":[
			{"teamId":"t1","teamName":"Alpha","score":"12.5"},
			{"teamId":42,"teamName":"Bravo","score":null}
		]}]}]}}`)
	})

	resp, err := c.GetTournamentResult(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/core/tournament/result/abc123", path)
	assert.Equal(t, Status(1), resp.Status)

	teams := resp.Data.TournamentResult[0].Result[0].Result
	require.Len(t, teams, 2)
	assert.Equal(t, Score(12.5), teams[0].Score)
	assert.Equal(t, Text("42"), teams[1].TeamID)
	assert.Equal(t, Score(0), teams[1].Score)
}

func TestGetTournamentResult_Errors(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusBadGateway)
		})
		_, err := c.GetTournamentResult(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("not json", func(t *testing.T) {
		c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
			ctx.SetBodyString("<html>")
		})
		_, err := c.GetTournamentResult(context.Background(), "x")
		require.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.GetTournamentResult(ctx, "x")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGetTournamentResult_MalformedShapes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status Status
	}{
		{"result not array", `{"status":1,"data":{"tournamentResult":"pending"}}`, 1},
		{"data is a string", `{"status":1,"data":"x"}`, 1},
		{"data is an array", `{"status":1,"data":[]}`, 1},
		{"data is null", `{"status":1,"data":null}`, 1},
		{"status as string", `{"status":"1","data":{}}`, 1},
		{"status not numeric", `{"status":"ok","data":{}}`, -1},
		{"status is an object", `{"status":{},"data":{}}`, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
				ctx.SetBodyString(tt.body)
			})
			resp, err := c.GetTournamentResult(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			if resp.Data != nil {
				assert.Empty(t, resp.Data.TournamentResult)
			}
		})
	}
}

func TestText_NonScalarValuesAreEmpty(t *testing.T) {
	var got TeamResult
	require.NoError(t, json.Unmarshal([]byte(`{"teamId":{"a":1},"teamName":["A"],"score":3}`), &got))
	assert.Empty(t, got.TeamID)
	assert.Empty(t, got.TeamName)

	require.NoError(t, json.Unmarshal([]byte(`{"teamId":true,"teamName":"Bravo"}`), &got))
	assert.Empty(t, got.TeamID)
	assert.Equal(t, Text("Bravo"), got.TeamName)

	require.NoError(t, json.Unmarshal([]byte(`{"teamId":42.5,"teamName":null}`), &got))
	assert.Equal(t, Text("42.5"), got.TeamID)
	assert.Empty(t, got.TeamName)
}

func TestListTournaments(t *testing.T) {
	var args *fasthttp.Args
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		args = &fasthttp.Args{}
		ctx.QueryArgs().CopyTo(args)
		ctx.SetBodyString(`{"status":1,"data":{"tournaments":[
			{"id":"abc","name":"Scrims","startDate":"2025-03-10T08:00:00.000Z","space":{"name":"DeathMate Esports"}}
		]}}`)
	})

	resp, err := c.ListTournaments(context.Background(), "live", 50)
	require.NoError(t, err)
	assert.Equal(t, "live", string(args.Peek("status")))
	assert.Equal(t, "Prize Pool", string(args.Peek("tournamentType")))
	assert.Equal(t, "3", string(args.Peek("gameId")))
	assert.Equal(t, "50", string(args.Peek("size")))
	assert.Equal(t, "0", string(args.Peek("page")))

	require.Len(t, resp.Data.Tournaments, 1)
	got := resp.Data.Tournaments[0]
	assert.Equal(t, Text("abc"), got.ID)
	assert.Equal(t, "DeathMate Esports", got.Space.Name)
	assert.True(t, got.StartDate.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
}
