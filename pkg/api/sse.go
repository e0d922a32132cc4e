package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"github.com/yourusername/tabula/pkg/game"
	"github.com/yourusername/tabula/pkg/simulate"
	"github.com/yourusername/tabula/pkg/store"
)

const (
	defaultSimulationGames = 100
	maxSimulationGames     = 10000
)

// SSEEvent represents a Server-Sent Event.
type SSEEvent struct {
	Event string `json:"event"` // Event type: "progress", "result", "error", "done"
	Data  any    `json:"data"`  // Event data
}

// SimulateSSE handles Server-Sent Events for streaming simulation progress.
// GET /api/simulate/stream?a=computer&b=random&games=...&seed=...&workers=...&record=true
func (h *Handlers) SimulateSSE(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeSSEError(w, "streaming not supported")
		return
	}

	query := r.URL.Query()
	games := parseIntParam(query.Get("games"), defaultSimulationGames)
	if games <= 0 || games > maxSimulationGames {
		writeSSEError(w, fmt.Sprintf("games must be between 1 and %d", maxSimulationGames))
		return
	}
	seed, err := strconv.ParseUint(query.Get("seed"), 10, 64)
	if err != nil && query.Get("seed") != "" {
		writeSSEError(w, "invalid seed")
		return
	}
	record := query.Get("record") == "true"
	if record && h.store == nil {
		writeSSEError(w, "game storage is not configured")
		return
	}

	a, err := simulate.NewContestant(kindParam(query.Get("a"), game.KindComputer), h.chooser.Usage.Cache)
	if err != nil {
		writeSSEError(w, "player a: "+err.Error())
		return
	}
	b, err := simulate.NewContestant(kindParam(query.Get("b"), game.KindRandom), h.chooser.Usage.Cache)
	if err != nil {
		writeSSEError(w, "player b: "+err.Error())
		return
	}

	if h.pool != nil {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeSSEError(w, "server busy")
			return
		}
		defer h.pool.ReleaseSlow()
	}

	opts := simulate.Options{
		Games:   games,
		Workers: simulationWorkers(query.Get("workers")),
		Seed:    seed,
		A:       a,
		B:       b,
		Logger:  h.log,
		Cache:   h.chooser.Usage.Cache,
	}

	// Report about a hundred times per run.
	every := max(1, games/100)
	progress := func(p simulate.Progress) {
		if p.Done%every != 0 && p.Done != p.Total {
			return
		}
		writeSSEEvent(w, "progress", SimulationProgress{
			Done:    p.Done,
			Total:   p.Total,
			Percent: float64(p.Done) * 100 / float64(p.Total),
			WinsA:   p.WinsA,
			WinsB:   p.WinsB,
			Errors:  p.Errors,
		})
		flusher.Flush()
	}

	res, err := simulate.Run(r.Context(), opts, progress)
	if err != nil {
		writeSSEError(w, "simulation failed: "+err.Error())
		return
	}

	out := SimulationResult{
		PlayerA:        a.Name,
		PlayerB:        b.Name,
		Games:          res.Games,
		WinsA:          res.WinsA,
		WinsB:          res.WinsB,
		Errors:         res.Errors,
		Forfeits:       res.Forfeits,
		Turns:          res.Turns,
		MeanTurns:      res.MeanTurns,
		Sigma:          res.Sigma,
		DurationMS:     res.Duration.Milliseconds(),
		TurnsPerSecond: res.TurnsPerSecond(),
	}
	if record {
		saved, err := h.store.RecordSimulation(r.Context(), store.SimulationRecord{
			PlayerA:  a.Name,
			PlayerB:  b.Name,
			Games:    res.Games,
			WinsA:    res.WinsA,
			WinsB:    res.WinsB,
			Errors:   res.Errors,
			Turns:    res.Turns,
			Seed:     seed,
			Duration: res.Duration,
		})
		if err != nil {
			h.log.WithError(err).Error("recording simulation failed")
		} else {
			out.ID = saved.ID
		}
	}

	// Send final result
	writeSSEEvent(w, "result", out)
	flusher.Flush()

	// Send done event to signal completion
	writeSSEEvent(w, "done", nil)
	flusher.Flush()
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", map[string]string{"error": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer from a string with a default value.
// simulationWorkers parses the workers parameter, capped at the CPU count.
// Zero leaves the choice to the simulator.
func simulationWorkers(s string) int {
	n := parseIntParam(s, 0)
	if n < 0 {
		return 0
	}
	return min(n, runtime.NumCPU())
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
