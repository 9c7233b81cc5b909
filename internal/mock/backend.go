// Package mock emulates the OCR backend's HTTP and event-stream surface so
// the gateway and the TUI can run without real model providers. Battles are
// held in memory; results are canned text streamed token by token.
package mock

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type model struct {
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

	sample      string // canned OCR output
	postprocess bool   // emits a replace event after streaming
}

type battleRec struct {
	docName  string
	modelA   int // index into Backend.models
	modelB   int
	resultA  string
	resultB  string
	latencyA int
	latencyB int
	streamed bool
	winner   string
}

// Backend is the in-memory mock OCR backend.
type Backend struct {
	mu         sync.Mutex
	models     []model
	battles    map[string]*battleRec
	headToHead map[string]*h2hRec
	tokenDelay time.Duration
}

type h2hRec struct {
	aWins, bWins, ties int
}

func NewBackend() *Backend {
	return &Backend{
		models:     defaultModels(),
		battles:    make(map[string]*battleRec),
		headToHead: make(map[string]*h2hRec),
		tokenDelay: 30 * time.Millisecond,
	}
}

// SetTokenDelay overrides the pause between token events. Tests set zero.
func (b *Backend) SetTokenDelay(d time.Duration) {
	b.mu.Lock()
	b.tokenDelay = d
	b.mu.Unlock()
}

// Routes registers all mock endpoints on mux.
func (b *Backend) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/battle/start", b.handleStart)
	mux.HandleFunc("/api/battle/", b.handleBattleRoutes)
	mux.HandleFunc("/api/leaderboard", b.handleLeaderboard)
	mux.HandleFunc("/api/leaderboard/head-to-head", b.handleHeadToHead)
	mux.HandleFunc("/api/documents/list", b.handleListDocuments)
	mux.HandleFunc("/api/documents/random", b.handleRandomDocument)
	mux.HandleFunc("/api/health", b.handleHealth)
}

func (b *Backend) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	docName := r.URL.Query().Get("document_name")
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			httpError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		if _, hdr, err := r.FormFile("file"); err == nil {
			docName = hdr.Filename
		}
	}
	if docName == "" {
		httpError(w, http.StatusBadRequest, "Provide a file or document_name")
		return
	}

	b.mu.Lock()
	a, bb := b.pickTwoModels()
	id := uuid.NewString()
	b.battles[id] = &battleRec{docName: docName, modelA: a, modelB: bb}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"battle_id":     id,
		"document_url":  "",
		"model_a_label": "Model A",
		"model_b_label": "Model B",
	})
}

// pickTwoModels returns two distinct model indexes. Caller holds b.mu.
func (b *Backend) pickTwoModels() (int, int) {
	a := rand.Intn(len(b.models))
	c := rand.Intn(len(b.models) - 1)
	if c >= a {
		c++
	}
	return a, c
}

func (b *Backend) handleBattleRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse: /api/battle/{id}/stream or /api/battle/{id}/vote
	rest := strings.TrimPrefix(r.URL.Path, "/api/battle/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	id, action := parts[0], parts[1]

	switch action {
	case "stream":
		b.handleStream(w, r, id)
	case "vote":
		b.handleVote(w, r, id)
	default:
		httpError(w, http.StatusNotFound, "not found")
	}
}

func (b *Backend) handleVote(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Winner string `json:"winner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Winner != "a" && req.Winner != "b" && req.Winner != "tie" {
		httpError(w, http.StatusBadRequest, "winner must be 'a', 'b', or 'tie'")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.battles[id]
	if !ok {
		httpError(w, http.StatusNotFound, "Battle not found")
		return
	}
	if rec.winner != "" {
		httpError(w, http.StatusBadRequest, "Already voted")
		return
	}
	rec.winner = req.Winner

	ma := &b.models[rec.modelA]
	mb := &b.models[rec.modelB]
	changeA, changeB := eloChange(ma.Elo, mb.Elo, req.Winner)

	ma.Elo += changeA
	mb.Elo += changeB
	ma.TotalBattles++
	mb.TotalBattles++
	switch req.Winner {
	case "a":
		ma.Wins++
		mb.Losses++
	case "b":
		mb.Wins++
		ma.Losses++
	}
	if rec.latencyA > 0 {
		ma.AvgLatencyMs = rollAvg(ma.AvgLatencyMs, ma.TotalBattles, rec.latencyA)
	}
	if rec.latencyB > 0 {
		mb.AvgLatencyMs = rollAvg(mb.AvgLatencyMs, mb.TotalBattles, rec.latencyB)
	}
	b.recordHeadToHead(ma.ID, mb.ID, req.Winner)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"battle_id":          id,
		"winner":             req.Winner,
		"model_a":            *ma,
		"model_b":            *mb,
		"model_a_elo_change": changeA,
		"model_b_elo_change": changeB,
	})
}

// eloChange fakes a rating delta: winner +16, loser -16, ties split on the
// rating gap. Real rating math lives in the production backend.
func eloChange(eloA, eloB int, winner string) (int, int) {
	switch winner {
	case "a":
		return 16, -16
	case "b":
		return -16, 16
	default:
		if eloA > eloB {
			return -4, 4
		}
		if eloB > eloA {
			return 4, -4
		}
		return 0, 0
	}
}

func rollAvg(avg float64, n int, latest int) float64 {
	if n <= 1 {
		return float64(latest)
	}
	return (avg*float64(n-1) + float64(latest)) / float64(n)
}

func (b *Backend) recordHeadToHead(idA, idB, winner string) {
	key := idA + "|" + idB
	flip := false
	if idB < idA {
		key = idB + "|" + idA
		flip = true
	}
	rec := b.headToHead[key]
	if rec == nil {
		rec = &h2hRec{}
		b.headToHead[key] = rec
	}
	switch {
	case winner == "tie":
		rec.ties++
	case (winner == "a") != flip:
		rec.aWins++
	default:
		rec.bWins++
	}
}

func (b *Backend) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	type entry struct {
		Rank int `json:"rank"`
		model
		WinRate float64 `json:"win_rate"`
	}

	sorted := make([]model, len(b.models))
	copy(sorted, b.models)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Elo > sorted[i].Elo {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	out := make([]entry, 0, len(sorted))
	for i, m := range sorted {
		winRate := 0.0
		if decided := m.Wins + m.Losses; decided > 0 {
			winRate = float64(m.Wins) / float64(decided)
		}
		out = append(out, entry{Rank: i + 1, model: m, WinRate: winRate})
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleHeadToHead(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	type entry struct {
		ModelAID   string `json:"model_a_id"`
		ModelAName string `json:"model_a_name"`
		ModelBID   string `json:"model_b_id"`
		ModelBName string `json:"model_b_name"`
		AWins      int    `json:"a_wins"`
		BWins      int    `json:"b_wins"`
		Ties       int    `json:"ties"`
		Total      int    `json:"total"`
	}

	names := make(map[string]string, len(b.models))
	for _, m := range b.models {
		names[m.ID] = m.DisplayName
	}

	out := make([]entry, 0, len(b.headToHead))
	for key, rec := range b.headToHead {
		ids := strings.SplitN(key, "|", 2)
		out = append(out, entry{
			ModelAID: ids[0], ModelAName: names[ids[0]],
			ModelBID: ids[1], ModelBName: names[ids[1]],
			AWins: rec.aWins, BWins: rec.bWins, Ties: rec.ties,
			Total: rec.aWins + rec.bWins + rec.ties,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	type docInfo struct {
		Name      string `json:"name"`
		Path      string `json:"path"`
		Extension string `json:"extension"`
	}
	docs := make([]docInfo, 0, len(sampleDocuments))
	for _, d := range sampleDocuments {
		docs = append(docs, docInfo{
			Name:      d.name,
			Path:      "/api/documents/" + d.name,
			Extension: filepath.Ext(d.name),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

func (b *Backend) handleRandomDocument(w http.ResponseWriter, r *http.Request) {
	d := sampleDocuments[rand.Intn(len(sampleDocuments))]
	ct := mime.TypeByExtension(filepath.Ext(d.name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("X-Document-Name", d.name)
	w.Write(d.data)
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func defaultModels() []model {
	return []model{
		{
			ID: "docutron-v2", Name: "docutron-v2", DisplayName: "Docutron V2",
			Icon: "🦾", Provider: "acme-ai", Elo: 1500, IsActive: true,
			sample: "# Quarterly Invoice\n\n| Item | Qty | Price |\n|------|-----|-------|\n| Widget | 12 | $4.20 |\n| Gadget | 3 | $9.99 |\n\nTotal due: **$80.37** by March 14.\n",
		},
		{
			ID: "pagelens-pro", Name: "pagelens-pro", DisplayName: "PageLens Pro",
			Icon: "🔍", Provider: "papermill", Elo: 1520, IsActive: true,
			postprocess: true,
			sample:      "# Quarterly lnvoice\n\n| ltem | Qty | Price |\n|------|-----|-------|\n| Widget | 12 | $4.20 |\n| Gadget | 3 | $9.99 |\n\nTotal due: **$80.37** by March l4.\n",
		},
		{
			ID: "glyphcore-mini", Name: "glyphcore-mini", DisplayName: "GlyphCore Mini",
			Icon: "⚡", Provider: "acme-ai", Elo: 1460, IsActive: true,
			sample: "Quarterly Invoice\n\nWidget x12 at $4.20, Gadget x3 at $9.99.\nTotal due $80.37 by March 14.\n",
		},
		{
			ID: "scriptsage-8b", Name: "scriptsage-8b", DisplayName: "ScriptSage 8B",
			Icon: "📜", Provider: "inkwell-labs", Elo: 1490, IsActive: true,
			sample: "# Quarterly Invoice\n\n- Widget — 12 — $4.20\n- Gadget — 3 — $9.99\n\nTotal due: $80.37 (March 14)\n",
		},
	}
}

type sampleDoc struct {
	name string
	data []byte
}

var sampleDocuments = []sampleDoc{
	{name: "invoice-q3.png", data: fakePNG("invoice-q3")},
	{name: "receipt-cafe.jpg", data: fakePNG("receipt-cafe")},
	{name: "contract-page1.png", data: fakePNG("contract-page1")},
}

// fakePNG returns bytes that carry a PNG signature so content sniffing is
// satisfied; the pixels don't matter to the mock.
func fakePNG(seed string) []byte {
	header := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return append(header, []byte(fmt.Sprintf("mock-document:%s", seed))...)
}
