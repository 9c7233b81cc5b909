// Package client provides the HTTP and event-stream clients for the
// DocParse Arena backend (usually reached through the gateway). Types
// mirror the backend wire protocol without importing backend packages.
package client

// StartResponse is returned by POST /api/battle/start. Model labels stay
// anonymous until the vote.
type StartResponse struct {
	BattleID    string `json:"battle_id"`
	DocumentURL string `json:"document_url"`
	ModelALabel string `json:"model_a_label"`
	ModelBLabel string `json:"model_b_label"`
}

// ModelInfo is the public identity of an OCR model, revealed by the vote
// response and listed on the leaderboard.
type ModelInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Icon         string  `json:"icon"`
	Provider     string  `json:"provider"`
	Elo          int     `json:"elo"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TotalBattles int     `json:"total_battles"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	IsActive     bool    `json:"is_active"`
}

// VoteResponse is returned by POST /api/battle/{id}/vote.
type VoteResponse struct {
	BattleID        string    `json:"battle_id"`
	Winner          string    `json:"winner"`
	ModelA          ModelInfo `json:"model_a"`
	ModelB          ModelInfo `json:"model_b"`
	ModelAEloChange int       `json:"model_a_elo_change"`
	ModelBEloChange int       `json:"model_b_elo_change"`
}

// LeaderboardEntry is one row of GET /api/leaderboard.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Icon         string  `json:"icon"`
	Provider     string  `json:"provider"`
	Elo          int     `json:"elo"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TotalBattles int     `json:"total_battles"`
	WinRate      float64 `json:"win_rate"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// HeadToHeadEntry is one pairing of GET /api/leaderboard/head-to-head.
type HeadToHeadEntry struct {
	ModelAID   string `json:"model_a_id"`
	ModelAName string `json:"model_a_name"`
	ModelBID   string `json:"model_b_id"`
	ModelBName string `json:"model_b_name"`
	AWins      int    `json:"a_wins"`
	BWins      int    `json:"b_wins"`
	Ties       int    `json:"ties"`
	Total      int    `json:"total"`
}

// DocumentInfo describes one sample document.
type DocumentInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// Document is a fetched document: the raw bytes plus the name the backend
// reported in the X-Document-Name header.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// --- Event-stream payloads ---

// TokenPayload carries one streamed text chunk (model_{a,b}_token).
type TokenPayload struct {
	Token string `json:"token"`
}

// DonePayload terminates one lane (model_{a,b}_done).
type DonePayload struct {
	LatencyMs int    `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReplacePayload overwrites a lane's full text (model_{a,b}_replace),
// emitted when post-processing rewrites the streamed output.
type ReplacePayload struct {
	Text string `json:"text"`
}

// ResultPayload is the single-shot terminal payload (model_{a,b}_result)
// used when a completed battle is replayed from cache.
type ResultPayload struct {
	Text      string `json:"text"`
	LatencyMs int    `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
