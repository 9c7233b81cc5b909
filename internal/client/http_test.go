package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bae-ChangHyun/DocParse-Arena/internal/battle"
)

func TestStartBattleUploadSendsMultipartFile(t *testing.T) {
	var gotFilename string
	var gotContent []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/battle/start" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotContent, _ = io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]string{"battle_id": "b-42"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	resp, err := c.StartBattleUpload("scan.png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("StartBattleUpload: %v", err)
	}
	if resp.BattleID != "b-42" {
		t.Errorf("BattleID = %q", resp.BattleID)
	}
	if gotFilename != "scan.png" {
		t.Errorf("filename = %q", gotFilename)
	}
	if !bytes.Equal(gotContent, []byte{0x89, 0x50}) {
		t.Errorf("content = %v", gotContent)
	}
}

func TestStartBattleSampleUsesQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("document_name"); got != "invoice q3.png" {
			t.Errorf("document_name = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"battle_id": "b-1"})
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL).StartBattleSample("invoice q3.png"); err != nil {
		t.Fatal(err)
	}
}

func TestVoteSendsWinnerAndDecodesOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/battle/b-1/vote" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["winner"] != "tie" {
			t.Errorf("winner = %q", req["winner"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"battle_id":          "b-1",
			"winner":             "tie",
			"model_a":            map[string]interface{}{"name": "docutron-v2", "elo": 1496},
			"model_b":            map[string]interface{}{"name": "pagelens-pro", "elo": 1524},
			"model_a_elo_change": -4,
			"model_b_elo_change": 4,
		})
	}))
	defer srv.Close()

	out, err := NewHTTPClient(srv.URL).Vote("b-1", battle.WinnerTie)
	if err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if out.Winner != "tie" || out.ModelA.Name != "docutron-v2" || out.ModelAEloChange != -4 {
		t.Errorf("vote response = %+v", out)
	}
}

func TestVoteRejectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Already voted"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL).Vote("b-1", battle.WinnerA); err == nil {
		t.Error("expected error for rejected vote")
	}
}

func TestListDocumentsUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"documents": []map[string]string{
				{"name": "a.png", "path": "/api/documents/a.png", "extension": ".png"},
				{"name": "b.jpg", "path": "/api/documents/b.jpg", "extension": ".jpg"},
			},
		})
	}))
	defer srv.Close()

	docs, err := NewHTTPClient(srv.URL).ListDocuments()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Name != "a.png" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestRandomDocumentReadsNameHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Document-Name", "contract-page1.png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	doc, err := NewHTTPClient(srv.URL).RandomDocument()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "contract-page1.png" {
		t.Errorf("Name = %q", doc.Name)
	}
	if doc.ContentType != "image/png" {
		t.Errorf("ContentType = %q", doc.ContentType)
	}
	if string(doc.Data) != "png-bytes" {
		t.Errorf("Data = %q", doc.Data)
	}
}
