package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/battle"
)

// Named event types of the battle stream, as emitted by the backend.
const (
	eventModelAToken   = "model_a_token"
	eventModelBToken   = "model_b_token"
	eventModelADone    = "model_a_done"
	eventModelBDone    = "model_b_done"
	eventModelAReplace = "model_a_replace"
	eventModelBReplace = "model_b_replace"
	eventModelAResult  = "model_a_result"
	eventModelBResult  = "model_b_result"
	eventSessionDone   = "done"
	eventStreamError   = "error"
)

// maxEventSize bounds a single SSE line; replace/result events carry a
// whole document's text.
const maxEventSize = 4 * 1024 * 1024

// streamClient deliberately has no timeout: the stream stays open for the
// whole battle. Cancellation goes through the request context instead.
var streamClient = &http.Client{}

// StreamSession owns the one event-stream connection of a battle. A
// dedicated reader goroutine decodes wire events into battle.Events and
// delivers them, in arrival order, on the Events channel. The channel is
// closed when the stream ends — normally (session end), by transport
// failure, or by Close. The session never reconnects; retrying is a
// caller-level decision.
type StreamSession struct {
	battleID string
	cancel   context.CancelFunc
	body     io.ReadCloser
	events   chan battle.Event

	closeOnce sync.Once
	closed    chan struct{}
}

// OpenStream connects to the battle event stream at
// {baseURL}/api/battle/{id}/stream and starts the reader.
func OpenStream(ctx context.Context, baseURL, battleID string) (*StreamSession, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/battle/"+battleID+"/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("open stream: unexpected content type %q", ct)
	}

	s := &StreamSession{
		battleID: battleID,
		cancel:   cancel,
		body:     resp.Body,
		events:   make(chan battle.Event, 32),
		closed:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// BattleID returns the battle this stream belongs to.
func (s *StreamSession) BattleID() string { return s.battleID }

// Events returns the channel of decoded reducer events. Closed when the
// stream is over.
func (s *StreamSession) Events() <-chan battle.Event { return s.events }

// Close shuts the transport down. Idempotent: safe to call repeatedly and
// after the stream already ended on its own.
func (s *StreamSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.cancel()
		s.body.Close()
	})
	return nil
}

func (s *StreamSession) readLoop() {
	defer close(s.events)
	defer s.Close()

	sc := bufio.NewScanner(s.body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			// Blank line terminates one frame.
			if ev, ok := decodeEvent(name, strings.Join(data, "\n")); ok {
				if !s.emit(ev) {
					return
				}
				if ev.Type == battle.EventSessionEnd || ev.Type == battle.EventTransportError {
					return
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// Keep-alive comment.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// id: and retry: fields are not part of this protocol.
	}

	// Reader ended without a session-end event: either we closed the
	// transport ourselves, or the peer dropped it mid-battle.
	select {
	case <-s.closed:
	default:
		s.emit(battle.Event{Type: battle.EventTransportError})
	}
}

// emit hands an event to the consumer; it aborts instead of blocking
// forever when the session is closed underneath a full channel.
func (s *StreamSession) emit(ev battle.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closed:
		return false
	}
}

// decodeEvent maps one named wire event onto a reducer event. ok is false
// for names the reducer does not consume and for undecodable payloads.
func decodeEvent(name, data string) (battle.Event, bool) {
	side := battle.SideA
	switch name {
	case eventModelBToken, eventModelBDone, eventModelBReplace, eventModelBResult:
		side = battle.SideB
	}

	switch name {
	case eventModelAToken, eventModelBToken:
		var p TokenPayload
		if json.Unmarshal([]byte(data), &p) != nil {
			return battle.Event{}, false
		}
		return battle.Event{Type: battle.EventToken, Side: side, Text: p.Token}, true

	case eventModelADone, eventModelBDone:
		var p DonePayload
		if json.Unmarshal([]byte(data), &p) != nil {
			return battle.Event{}, false
		}
		return battle.Event{Type: battle.EventDone, Side: side, LatencyMs: p.LatencyMs, Err: p.Error}, true

	case eventModelAReplace, eventModelBReplace:
		var p ReplacePayload
		if json.Unmarshal([]byte(data), &p) != nil {
			return battle.Event{}, false
		}
		return battle.Event{Type: battle.EventReplace, Side: side, Text: p.Text}, true

	case eventModelAResult, eventModelBResult:
		var p ResultPayload
		if json.Unmarshal([]byte(data), &p) != nil {
			return battle.Event{}, false
		}
		return battle.Event{Type: battle.EventResult, Side: side, Text: p.Text, LatencyMs: p.LatencyMs, Err: p.Error}, true

	case eventSessionDone:
		return battle.Event{Type: battle.EventSessionEnd}, true

	case eventStreamError:
		// Server-side abort (e.g. stream timeout): same handling as a
		// dropped connection.
		return battle.Event{Type: battle.EventTransportError}, true
	}
	return battle.Event{}, false
}
