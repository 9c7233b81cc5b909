package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/battle"
)

// HTTPClient makes the synchronous REST calls of a battle: start, vote,
// leaderboard and document lookups.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:3000").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the configured base URL.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// StartBattleUpload uploads a document and starts a battle over it.
func (c *HTTPClient) StartBattleUpload(filename string, content []byte) (*StartResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/battle/start", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out StartResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartBattleSample starts a battle over a named sample document already
// known to the backend.
func (c *HTTPClient) StartBattleSample(documentName string) (*StartResponse, error) {
	target := c.baseURL + "/api/battle/start?document_name=" + url.QueryEscape(documentName)
	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return nil, err
	}

	var out StartResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vote casts the caller's vote for a finished battle. A rejected vote
// (already voted, unknown battle) comes back as an error; the caller's
// state is not advanced.
func (c *HTTPClient) Vote(battleID string, winner battle.Winner) (*VoteResponse, error) {
	var out VoteResponse
	if err := c.post("/api/battle/"+battleID+"/vote", map[string]string{"winner": string(winner)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Leaderboard fetches /api/leaderboard.
func (c *HTTPClient) Leaderboard() ([]LeaderboardEntry, error) {
	var out []LeaderboardEntry
	if err := c.get("/api/leaderboard", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HeadToHead fetches /api/leaderboard/head-to-head.
func (c *HTTPClient) HeadToHead() ([]HeadToHeadEntry, error) {
	var out []HeadToHeadEntry
	if err := c.get("/api/leaderboard/head-to-head", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDocuments fetches the sample document catalog.
func (c *HTTPClient) ListDocuments() ([]DocumentInfo, error) {
	var out struct {
		Documents []DocumentInfo `json:"documents"`
	}
	if err := c.get("/api/documents/list", &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// RandomDocument fetches a random sample document. The display name comes
// from the X-Document-Name response header.
func (c *HTTPClient) RandomDocument() (*Document, error) {
	resp, err := c.client.Get(c.baseURL + "/api/documents/random")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GET /api/documents/random: %d %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	name := resp.Header.Get("X-Document-Name")
	if name == "" {
		name = "random"
	}
	return &Document{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, string(body))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
