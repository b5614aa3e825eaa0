package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadpilot/internal/oracle"
)

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestClientGenerate(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(chatBody(`{"action": "ask_question"}`)))
	}))
	defer srv.Close()

	c := oracle.NewClient(oracle.ClientConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "test-model"}, nil)
	raw, err := c.Generate(context.Background(), []oracle.Segment{
		{Role: oracle.RoleSystem, Content: "contract"},
		{Role: oracle.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out["action"] != "ask_question" {
		t.Fatalf("unexpected payload %s (%v)", raw, err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if gotReq["model"] != "test-model" {
		t.Fatalf("model not sent: %v", gotReq["model"])
	}
	msgs := gotReq["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestClientStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody("```json\n{\"ok\": true}\n```")))
	}))
	defer srv.Close()

	c := oracle.NewClient(oracle.ClientConfig{BaseURL: srv.URL, Model: "m"}, nil)
	raw, err := c.Generate(context.Background(), []oracle.Segment{{Role: oracle.RoleUser, Content: "x"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Fatalf("fences not stripped: %s", raw)
	}
}

func TestClientNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := oracle.NewClient(oracle.ClientConfig{BaseURL: srv.URL, Model: "m"}, nil)
	_, err := c.Generate(context.Background(), []oracle.Segment{{Role: oracle.RoleUser, Content: "x"}})
	te, ok := err.(*oracle.TransportError)
	if !ok || te.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected TransportError 429, got %v", err)
	}
}

func TestClientNonJSONContentIsParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatBody("I cannot answer in JSON, sorry")))
	}))
	defer srv.Close()

	c := oracle.NewClient(oracle.ClientConfig{BaseURL: srv.URL, Model: "m"}, nil)
	_, err := c.Generate(context.Background(), []oracle.Segment{{Role: oracle.RoleUser, Content: "x"}})
	if _, ok := err.(*oracle.ParseError); !ok {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chatBody(`{}`)))
	}))
	defer srv.Close()

	c := oracle.NewClient(oracle.ClientConfig{BaseURL: srv.URL, Model: "m", Timeout: 20 * time.Millisecond}, nil)
	_, err := c.Generate(context.Background(), []oracle.Segment{{Role: oracle.RoleUser, Content: "x"}})
	if _, ok := err.(*oracle.TimeoutError); !ok {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}
