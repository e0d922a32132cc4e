package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tabula/internal/positionid"
	"github.com/yourusername/tabula/pkg/engine"
	"github.com/yourusername/tabula/pkg/store"
)

func quietLogger() *logrus.Logger {
	l, _ := test.NewNullLogger()
	return l
}

func newTestHandlers(t *testing.T, withStore bool) *Handlers {
	t.Helper()
	var st *store.Store
	if withStore {
		var err error
		st, err = store.Open(context.Background(), filepath.Join(t.TempDir(), "tabula.db"))
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
	}
	h := NewHandlers(st, "test-version")
	h.SetLogger(quietLogger())
	return h
}

// nearlyWonID has one White checker on point 22 and the rest home; Black has
// not entered.
func nearlyWonID() string {
	var c positionid.Counts
	c[23][0] = 1
	c[engine.HomeIndex][0] = engine.CheckersPerColour - 1
	c[engine.StartIndex][1] = engine.CheckersPerColour
	return engine.NewBoardFromCounts(c).PositionID()
}

func post(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestHealthHandler(t *testing.T) {
	h := newTestHandlers(t, false)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	health := decodeBody[HealthResponse](t, w)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test-version", health.Version)
	assert.False(t, health.Storage)
	assert.Nil(t, health.Pool)
	require.NotNil(t, health.Cache)
}

func TestMovesHandler(t *testing.T) {
	h := newTestHandlers(t, false)

	w := post(t, h.Moves, PositionRequest{Colour: "White", Dice: []int{3, 5}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[MovesResponse](t, w)
	assert.Equal(t, "White", resp.Colour)
	assert.Equal(t, engine.NewBoard().PositionID(), resp.Position)
	assert.Equal(t, []MoveResponse{
		{Move: "0:3", Notation: "0/3"},
		{Move: "0:5", Notation: "0/5"},
	}, resp.Moves)
}

func TestRequestValidation(t *testing.T) {
	h := newTestHandlers(t, false)

	tests := []struct {
		name string
		body PositionRequest
		code string
	}{
		{"bad colour", PositionRequest{Colour: "green", Dice: []int{1, 2}}, "INVALID_COLOUR"},
		{"no dice", PositionRequest{Colour: "White"}, "INVALID_DICE"},
		{"die out of range", PositionRequest{Colour: "White", Dice: []int{7, 1}}, "INVALID_DICE"},
		{"too many dice", PositionRequest{Colour: "White", Dice: []int{2, 2, 2, 2, 2}}, "INVALID_DICE"},
		{"bad position", PositionRequest{Position: "not-a-position", Colour: "White", Dice: []int{1, 2}}, "INVALID_POSITION"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, handler := range []http.HandlerFunc{h.Moves, h.Usable} {
				w := post(t, handler, tc.body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, tc.code, decodeBody[ErrorResponse](t, w).Code)
			}
		})
	}

	t.Run("invalid JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Moves(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_JSON", decodeBody[ErrorResponse](t, w).Code)
	})
}

func TestUsableHandler(t *testing.T) {
	h := newTestHandlers(t, false)

	tests := []struct {
		dice []int
		want int
	}{
		{[]int{3, 5}, 2},
		{[]int{6, 6, 6, 6}, 4},
		{[]int{4}, 1},
	}
	for _, tc := range tests {
		w := post(t, h.Usable, PositionRequest{Colour: "black", Dice: tc.dice})
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[UsableResponse](t, w)
		assert.Equal(t, tc.want, resp.Usable, "dice %v", tc.dice)
		assert.Equal(t, "Black", resp.Colour)
	}
}

func TestTurnHandler(t *testing.T) {
	h := newTestHandlers(t, false)

	t.Run("accepted", func(t *testing.T) {
		w := post(t, h.Turn, TurnRequest{
			PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}},
			Turn:            "0:3 0:5",
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decodeBody[TurnResponse](t, w)
		assert.Empty(t, resp.Winner)
		b, err := engine.BoardFromPositionID(resp.Position)
		require.NoError(t, err)
		assert.Equal(t, engine.CheckersPerColour-2, b.StartLocation().Count(engine.White))
		assert.NotEmpty(t, resp.Board)
	})

	t.Run("winning", func(t *testing.T) {
		w := post(t, h.Turn, TurnRequest{
			PositionRequest: PositionRequest{Position: nearlyWonID(), Colour: "White", Dice: []int{3, 5}},
			Turn:            "22:3",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "White", decodeBody[TurnResponse](t, w).Winner)
	})

	t.Run("not all dice used", func(t *testing.T) {
		w := post(t, h.Turn, TurnRequest{
			PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}},
			Turn:            "0:3",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "ILLEGAL_TURN", decodeBody[ErrorResponse](t, w).Code)
	})

	t.Run("unparsable", func(t *testing.T) {
		w := post(t, h.Turn, TurnRequest{
			PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}},
			Turn:            "zero:three",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TURN", decodeBody[ErrorResponse](t, w).Code)
	})
}

func TestChooseHandler(t *testing.T) {
	h := newTestHandlers(t, false)

	w := post(t, h.Choose, ChooseRequest{PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[ChooseResponse](t, w)
	require.NotEmpty(t, resp.Turn)
	require.NotEmpty(t, resp.Candidates)
	assert.LessOrEqual(t, len(resp.Candidates), defaultCandidates)
	assert.Equal(t, resp.Turn, resp.Candidates[0].Turn)
	for i := 1; i < len(resp.Candidates); i++ {
		assert.GreaterOrEqual(t, resp.Candidates[i-1].Score, resp.Candidates[i].Score)
	}

	// The chosen turn must be accepted by the turn endpoint.
	w = post(t, h.Turn, TurnRequest{
		PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}},
		Turn:            resp.Turn,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(t, h.Choose, ChooseRequest{PositionRequest: PositionRequest{Colour: "White", Dice: []int{3, 5}}, Limit: 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[ChooseResponse](t, w).Candidates, 1)
}

func TestGamesRequireStorage(t *testing.T) {
	h := newTestHandlers(t, false)

	w := post(t, h.CreateGame, GameRequest{Name: "table"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORAGE_DISABLED", decodeBody[ErrorResponse](t, w).Code)
}

func TestGameLifecycle(t *testing.T) {
	h := newTestHandlers(t, true)
	srv := NewServer(h.store, DefaultConfig(), "test", quietLogger())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, _ := json.Marshal(GameRequest{
		Name:    "kitchen table",
		Current: "Black",
		Dice:    []int{2, 2, 2, 2},
		Players: map[string]string{"White": "computer", "Black": "human"},
	})
	res, err := http.Post(ts.URL+"/api/games", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var created GameResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "kitchen table", created.Name)
	assert.Equal(t, "Black", created.Current)

	res, err = http.Get(ts.URL + "/api/games/" + created.ID)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var got GameResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, engine.NewBoard().PositionID(), got.Position)
	assert.NotEmpty(t, got.Board)

	res, err = http.Get(ts.URL + "/api/games?limit=5")
	require.NoError(t, err)
	defer res.Body.Close()
	var list []GameResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	require.Len(t, list, 1)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/games/"+created.ID, nil)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/games/" + created.ID)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(ts.URL + "/api/games/not-a-uuid")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateGameRejectsBadInput(t *testing.T) {
	h := newTestHandlers(t, true)

	tests := []struct {
		name string
		req  GameRequest
		code string
	}{
		{"bad current", GameRequest{Current: "red"}, "INVALID_COLOUR"},
		{"bad dice", GameRequest{Dice: []int{3, 3}}, "INVALID_DICE"},
		{"bad player colour", GameRequest{Players: map[string]string{"red": "computer"}}, "INVALID_COLOUR"},
		{"bad player kind", GameRequest{Players: map[string]string{"White": "oracle"}}, "INVALID_PLAYER"},
		{"bad position", GameRequest{Position: "???"}, "INVALID_POSITION"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, h.CreateGame, tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, decodeBody[ErrorResponse](t, w).Code)
		})
	}
}

func TestSimulateSSE(t *testing.T) {
	h := newTestHandlers(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/simulate/stream?a=random&b=random&games=4&seed=9&workers=2&record=true", nil)
	w := httptest.NewRecorder()
	h.SimulateSSE(w, req)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, "event: result")
	assert.True(t, strings.HasSuffix(body, "event: done\n\n"))

	var result SimulationResult
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, "player_a") {
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &result))
		}
	}
	assert.Equal(t, 4, result.Games)
	assert.Equal(t, 4, result.WinsA+result.WinsB+result.Errors)
	assert.NotEmpty(t, result.ID)

	sims, err := h.store.ListSimulations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, result.ID, sims[0].ID)
}

func TestSimulationWorkers(t *testing.T) {
	cpus := runtime.NumCPU()
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"-3", 0},
		{"1", 1},
		{strconv.Itoa(cpus), cpus},
		{"100000", cpus},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, simulationWorkers(tc.in), "workers=%q", tc.in)
	}
}

func TestSimulateSSEErrors(t *testing.T) {
	h := newTestHandlers(t, false)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"too many games", "games=100000", "games must be between"},
		{"bad kind", "a=oracle", "player a"},
		{"human", "b=human", "player b"},
		{"bad seed", "seed=-1", "invalid seed"},
		{"record without storage", "record=true", "storage"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.SimulateSSE(w, httptest.NewRequest(http.MethodGet, "/api/simulate/stream?"+tc.query, nil))
			body := w.Body.String()
			assert.Contains(t, body, "event: error")
			assert.Contains(t, body, tc.want)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	srv := NewServer(nil, DefaultConfig(), "test", logger)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/games", strings.NewReader("{}")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request", entry.Message)
	assert.Equal(t, http.StatusServiceUnavailable, entry.Data["status"])
	assert.Equal(t, "/api/games", entry.Data["path"])
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(nil, DefaultConfig(), "test", quietLogger())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/moves", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func dialWS(t *testing.T, handler http.Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL+"/api/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func roundTrip(t *testing.T, ws *websocket.Conn, msgType, id string, payload any) WSResponse {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	require.NoError(t, ws.WriteJSON(WSMessage{Type: msgType, ID: id, Payload: raw}))

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp WSResponse
	require.NoError(t, ws.ReadJSON(&resp))
	return resp
}

func TestWebSocketThroughServer(t *testing.T) {
	srv := NewServer(nil, DefaultConfig(), "test", quietLogger())
	ws := dialWS(t, srv.Handler())

	resp := roundTrip(t, ws, "ping", "ping-1", nil)
	assert.Equal(t, "pong", resp.Type)
	assert.Equal(t, "ping-1", resp.ID)
}

func TestWebSocketMessages(t *testing.T) {
	h := newTestHandlers(t, false)
	ws := dialWS(t, http.HandlerFunc(h.WebSocket))

	resp := roundTrip(t, ws, "moves", "moves-1", PositionRequest{Colour: "White", Dice: []int{3, 5}})
	require.Equal(t, "result", resp.Type, resp.Error)
	assert.Equal(t, "moves-1", resp.ID)
	moves := resp.Payload.(map[string]any)["moves"].([]any)
	assert.Len(t, moves, 2)

	resp = roundTrip(t, ws, "usable", "usable-1", PositionRequest{Colour: "White", Dice: []int{6, 6, 6, 6}})
	require.Equal(t, "result", resp.Type, resp.Error)
	assert.EqualValues(t, 4, resp.Payload.(map[string]any)["usable"])

	resp = roundTrip(t, ws, "choose", "choose-1", ChooseRequest{PositionRequest: PositionRequest{Colour: "Black", Dice: []int{1, 2}}})
	require.Equal(t, "result", resp.Type, resp.Error)
	assert.NotEmpty(t, resp.Payload.(map[string]any)["turn"])

	resp = roundTrip(t, ws, "turn", "turn-1", TurnRequest{
		PositionRequest: PositionRequest{Position: nearlyWonID(), Colour: "White", Dice: []int{1, 2}},
		Turn:            "22:1 23:2",
	})
	require.Equal(t, "result", resp.Type, resp.Error)
	assert.Equal(t, "White", resp.Payload.(map[string]any)["winner"])
}

func TestWebSocketErrors(t *testing.T) {
	h := newTestHandlers(t, false)
	ws := dialWS(t, http.HandlerFunc(h.WebSocket))

	tests := []struct {
		name    string
		msgType string
		payload any
		wantErr string
		code    string
	}{
		{"unknown type", "evaluate", nil, "unknown message type", ""},
		{"missing payload", "moves", nil, "invalid payload", "INVALID_JSON"},
		{"missing turn payload", "turn", nil, "invalid payload", "INVALID_JSON"},
		{"payload not an object", "choose", "3-5", "invalid payload", "INVALID_JSON"},
		{"invalid dice", "moves", PositionRequest{Colour: "White", Dice: []int{7, 1}}, "invalid dice", "INVALID_DICE"},
		{"invalid position", "usable", PositionRequest{Position: "invalid!!!", Colour: "White", Dice: []int{1, 2}}, "invalid position", "INVALID_POSITION"},
		{"illegal turn", "turn", TurnRequest{PositionRequest: PositionRequest{Colour: "White", Dice: []int{1, 2}}, Turn: "0:1"}, "not all usable dice", "ILLEGAL_TURN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := roundTrip(t, ws, tc.msgType, tc.name, tc.payload)
			assert.Equal(t, "error", resp.Type)
			assert.Equal(t, tc.name, resp.ID)
			assert.Contains(t, resp.Error, tc.wantErr)
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}
