package mock

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// handleStream plays a battle out over server-sent events. The first stream
// for a battle runs both lanes concurrently token by token; later streams
// replay the cached results in single result events.
func (b *Backend) handleStream(w http.ResponseWriter, r *http.Request, id string) {
	b.mu.Lock()
	rec, ok := b.battles[id]
	if !ok {
		b.mu.Unlock()
		httpError(w, http.StatusNotFound, "Battle not found")
		return
	}
	replay := rec.streamed
	rec.streamed = true
	modelA := b.models[rec.modelA]
	modelB := b.models[rec.modelB]
	delay := b.tokenDelay
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sw := &sseWriter{w: w, rc: http.NewResponseController(w)}

	if replay {
		b.mu.Lock()
		resA, latA := rec.resultA, rec.latencyA
		resB, latB := rec.resultB, rec.latencyB
		b.mu.Unlock()
		sw.send("model_a_result", resultPayload{Text: resA, LatencyMs: latA})
		sw.send("model_b_result", resultPayload{Text: resB, LatencyMs: latB})
		sw.send("done", struct{}{})
		return
	}

	type laneEvent struct {
		name    string
		payload interface{}
	}
	events := make(chan laneEvent, 16)
	lanes := 2

	runLane := func(side string, m model) {
		start := time.Now()
		text := m.sample
		for _, tok := range tokenize(text) {
			if delay > 0 {
				time.Sleep(delay)
			}
			events <- laneEvent{side + "_token", tokenPayload{Token: tok}}
		}
		latency := int(time.Since(start).Milliseconds()) + 200 + rand.Intn(800)
		if m.postprocess {
			cleaned := postprocess(text)
			events <- laneEvent{side + "_replace", replacePayload{Text: cleaned}}
			text = cleaned
		}
		events <- laneEvent{side + "_done", donePayload{LatencyMs: latency}}

		b.mu.Lock()
		if side == "model_a" {
			rec.resultA, rec.latencyA = text, latency
		} else {
			rec.resultB, rec.latencyB = text, latency
		}
		b.mu.Unlock()
		events <- laneEvent{"", nil} // lane finished
	}

	go runLane("model_a", modelA)
	go runLane("model_b", modelB)

	for lanes > 0 {
		ev := <-events
		if ev.name == "" {
			lanes--
			continue
		}
		if !sw.send(ev.name, ev.payload) {
			// Caller went away; drain the lanes so their goroutines exit.
			go func() {
				for lanes > 0 {
					if e := <-events; e.name == "" {
						lanes--
					}
				}
			}()
			return
		}
	}
	sw.send("done", struct{}{})
}

type tokenPayload struct {
	Token string `json:"token"`
}

type donePayload struct {
	LatencyMs int    `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type replacePayload struct {
	Text string `json:"text"`
}

type resultPayload struct {
	Text      string `json:"text"`
	LatencyMs int    `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// send writes one named event and flushes it. Returns false once the
// connection is gone.
func (s *sseWriter) send(name string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return false
	}
	return s.rc.Flush() == nil
}

// tokenize splits text into word-sized chunks, keeping the whitespace that
// follows each word so concatenating the tokens reproduces the text.
func tokenize(text string) []string {
	var toks []string
	start := 0
	inWord := false
	for i, r := range text {
		if r == ' ' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord && i > start {
			toks = append(toks, text[start:i])
			start = i
		}
		inWord = true
	}
	if start < len(text) {
		toks = append(toks, text[start:])
	}
	return toks
}

// postprocess fixes the classic OCR confusions the sloppy sample text
// carries (lowercase L for uppercase I and digit one).
func postprocess(text string) string {
	r := strings.NewReplacer("lnvoice", "Invoice", "ltem", "Item", "March l4", "March 14")
	return r.Replace(text)
}
