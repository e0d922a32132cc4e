// Package api provides the HTTP/JSON, Server-Sent Events and WebSocket front
// end for the rules engine.
package api

import "time"

// ============================================================================
// Request Types
// ============================================================================

// PositionRequest names a board, a colour and a roll.
type PositionRequest struct {
	Position string `json:"position,omitempty"` // Position ID; empty means the start position
	Colour   string `json:"colour"`             // "White" or "Black"
	Dice     []int  `json:"dice"`               // Dice values, one to four
}

// TurnRequest asks the server to validate and apply a turn.
type TurnRequest struct {
	PositionRequest
	Turn string `json:"turn"` // Moves in source:die form, e.g. "0:3 0:5"
}

// ChooseRequest asks for the computer's turn.
type ChooseRequest struct {
	PositionRequest
	Limit int `json:"limit,omitempty"` // Ranked candidates to return (default 5)
}

// GameRequest creates a stored game.
type GameRequest struct {
	Name     string            `json:"name,omitempty"`
	Position string            `json:"position,omitempty"` // Position ID; empty means the start position
	Current  string            `json:"current,omitempty"`  // Colour to play (default White)
	Dice     []int             `json:"dice,omitempty"`     // Rolled dice, if any
	Players  map[string]string `json:"players,omitempty"`  // Player kind per colour
}

// ============================================================================
// Response Types
// ============================================================================

// MoveResponse is a single move.
type MoveResponse struct {
	Move     string `json:"move"`     // source:die form
	Notation string `json:"notation"` // source/destination form
}

// MovesResponse lists the possible single moves.
type MovesResponse struct {
	Position string         `json:"position"`
	Colour   string         `json:"colour"`
	Dice     []int          `json:"dice"`
	Moves    []MoveResponse `json:"moves"`
}

// UsableResponse is the number of dice that can be used.
type UsableResponse struct {
	Position string `json:"position"`
	Colour   string `json:"colour"`
	Dice     []int  `json:"dice"`
	Usable   int    `json:"usable"`
}

// TurnResponse is the board after an accepted turn.
type TurnResponse struct {
	Position string `json:"position"`         // Position ID after the turn
	Turn     string `json:"turn"`             // Turn in notation form
	Winner   string `json:"winner,omitempty"` // Set when the turn won the game
	Board    string `json:"board"`            // Board dump
}

// CandidateResponse is one scored turn.
type CandidateResponse struct {
	Turn     string  `json:"turn"`
	Notation string  `json:"notation"`
	Score    float64 `json:"score"`
}

// ChooseResponse is the computer's choice plus the best alternatives.
type ChooseResponse struct {
	Position   string              `json:"position"`
	Colour     string              `json:"colour"`
	Dice       []int               `json:"dice"`
	Turn       string              `json:"turn"`     // Empty when no dice can be used
	Notation   string              `json:"notation"` // Chosen turn in notation form
	NumTurns   int                 `json:"num_turns"`
	Candidates []CandidateResponse `json:"candidates"`
}

// GameResponse describes a stored game.
type GameResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	Current   string    `json:"current"`
	Winner    string    `json:"winner,omitempty"`
	Turns     int       `json:"turns"`
	Board     string    `json:"board,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SimulationProgress is streamed while a simulation runs.
type SimulationProgress struct {
	Done    int     `json:"done"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	WinsA   int     `json:"wins_a"`
	WinsB   int     `json:"wins_b"`
	Errors  int     `json:"errors"`
}

// SimulationResult is the final simulation summary.
type SimulationResult struct {
	ID             string  `json:"id,omitempty"` // Set when the result was stored
	PlayerA        string  `json:"player_a"`
	PlayerB        string  `json:"player_b"`
	Games          int     `json:"games"`
	WinsA          int     `json:"wins_a"`
	WinsB          int     `json:"wins_b"`
	Errors         int     `json:"errors"`
	Forfeits       int     `json:"forfeits"`
	Turns          int     `json:"turns"`
	MeanTurns      float64 `json:"mean_turns"`
	Sigma          float64 `json:"sigma"`
	DurationMS     int64   `json:"duration_ms"`
	TurnsPerSecond float64 `json:"turns_per_second"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// CacheStats reports the shared dice usage cache.
type CacheStats struct {
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"`
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string      `json:"status"`          // "ok" or "error"
	Version string      `json:"version"`         // Server version
	Storage bool        `json:"storage"`         // Whether a game store is configured
	Pool    *PoolStats  `json:"pool,omitempty"`  // Worker pool statistics
	Cache   *CacheStats `json:"cache,omitempty"` // Usage cache statistics
}
