package mock

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*Backend, *httptest.Server) {
	t.Helper()
	b := NewBackend()
	b.SetTokenDelay(0)
	mux := http.NewServeMux()
	b.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func startBattle(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/battle/start?document_name=invoice-q3.png", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	var out struct {
		BattleID string `json:"battle_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.BattleID == "" {
		t.Fatal("empty battle_id")
	}
	return out.BattleID
}

// readEvents collects (name, data) pairs until the stream ends.
func readEvents(t *testing.T, body io.Reader) [][2]string {
	t.Helper()
	var events [][2]string
	var name, data string
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if name != "" {
				events = append(events, [2]string{name, data})
			}
			name, data = "", ""
		}
	}
	return events
}

func TestStartWithMultipartUpload(t *testing.T) {
	_, srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("not really a png"))
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/battle/start", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestStartWithoutDocumentFails(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/battle/start", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStreamEmitsBothLanesAndDone(t *testing.T) {
	_, srv := newTestServer(t)
	id := startBattle(t, srv)

	resp, err := http.Get(srv.URL + "/api/battle/" + id + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := readEvents(t, resp.Body)
	if len(events) == 0 {
		t.Fatal("no events")
	}

	counts := map[string]int{}
	for _, ev := range events {
		counts[ev[0]]++
	}
	if counts["model_a_token"] == 0 || counts["model_b_token"] == 0 {
		t.Errorf("missing token events: %v", counts)
	}
	if counts["model_a_done"] != 1 || counts["model_b_done"] != 1 {
		t.Errorf("done counts = %v", counts)
	}
	if last := events[len(events)-1]; last[0] != "done" {
		t.Errorf("last event = %q, want done", last[0])
	}
}

func TestStreamTokensConcatenateToResult(t *testing.T) {
	b, srv := newTestServer(t)
	id := startBattle(t, srv)

	resp, err := http.Get(srv.URL + "/api/battle/" + id + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	events := readEvents(t, resp.Body)

	var assembled strings.Builder
	replaced := ""
	for _, ev := range events {
		switch ev[0] {
		case "model_a_token":
			var p tokenPayload
			json.Unmarshal([]byte(ev[1]), &p)
			assembled.WriteString(p.Token)
		case "model_a_replace":
			var p replacePayload
			json.Unmarshal([]byte(ev[1]), &p)
			replaced = p.Text
		}
	}

	b.mu.Lock()
	rec := b.battles[id]
	want := rec.resultA
	b.mu.Unlock()

	got := assembled.String()
	if replaced != "" {
		got = replaced
	}
	if got != want {
		t.Errorf("assembled text = %q, cached result = %q", got, want)
	}
}

func TestSecondStreamReplaysCachedResults(t *testing.T) {
	_, srv := newTestServer(t)
	id := startBattle(t, srv)

	first, err := http.Get(srv.URL + "/api/battle/" + id + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	io.Copy(io.Discard, first.Body)
	first.Body.Close()

	second, err := http.Get(srv.URL + "/api/battle/" + id + "/stream")
	if err != nil {
		t.Fatal(err)
	}
	defer second.Body.Close()
	events := readEvents(t, second.Body)

	if len(events) != 3 {
		t.Fatalf("replay events = %v, want result/result/done", events)
	}
	if events[0][0] != "model_a_result" || events[1][0] != "model_b_result" {
		t.Errorf("replay event names = %q, %q", events[0][0], events[1][0])
	}
	var p resultPayload
	if err := json.Unmarshal([]byte(events[0][1]), &p); err != nil {
		t.Fatal(err)
	}
	if p.Text == "" || p.LatencyMs <= 0 {
		t.Errorf("replay payload = %+v", p)
	}
}

func TestVoteUpdatesRatingsOnce(t *testing.T) {
	b, srv := newTestServer(t)
	id := startBattle(t, srv)

	resp, err := http.Post(srv.URL+"/api/battle/"+id+"/vote",
		"application/json", strings.NewReader(`{"winner":"a"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote status = %d", resp.StatusCode)
	}

	var out struct {
		Winner     string `json:"winner"`
		EloChangeA int    `json:"model_a_elo_change"`
		EloChangeB int    `json:"model_b_elo_change"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Winner != "a" || out.EloChangeA != 16 || out.EloChangeB != -16 {
		t.Errorf("vote response = %+v", out)
	}

	b.mu.Lock()
	rec := b.battles[id]
	winA := b.models[rec.modelA].Wins
	b.mu.Unlock()
	if winA != 1 {
		t.Errorf("winner Wins = %d, want 1", winA)
	}

	again, err := http.Post(srv.URL+"/api/battle/"+id+"/vote",
		"application/json", strings.NewReader(`{"winner":"b"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusBadRequest {
		t.Errorf("second vote status = %d, want 400", again.StatusCode)
	}
}

func TestVoteRejectsBadWinner(t *testing.T) {
	_, srv := newTestServer(t)
	id := startBattle(t, srv)

	resp, err := http.Post(srv.URL+"/api/battle/"+id+"/vote",
		"application/json", strings.NewReader(`{"winner":"both"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLeaderboardSortedByRating(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var entries []struct {
		Rank int `json:"rank"`
		Elo  int `json:"elo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Elo > entries[i-1].Elo {
			t.Errorf("leaderboard not sorted at %d: %d > %d", i, entries[i].Elo, entries[i-1].Elo)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank[%d] = %d", i, entries[i].Rank)
		}
	}
}

func TestRandomDocumentSetsNameHeader(t *testing.T) {
	_, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/documents/random")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	name := resp.Header.Get("X-Document-Name")
	if name == "" {
		t.Fatal("X-Document-Name missing")
	}
	found := false
	for _, d := range sampleDocuments {
		if d.name == name {
			found = true
		}
	}
	if !found {
		t.Errorf("unknown document name %q", name)
	}
	data, _ := io.ReadAll(resp.Body)
	if len(data) == 0 {
		t.Error("empty document body")
	}
}

func TestTokenizeRoundTrips(t *testing.T) {
	for _, text := range []string{
		"Hello world",
		"# Title\n\nline one\nline two\n",
		"single",
		"",
	} {
		toks := tokenize(text)
		if got := strings.Join(toks, ""); got != text {
			t.Errorf("tokenize(%q) joined = %q", text, got)
		}
	}
}
