package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/judge0/llm-companion/internal/companion"
	"github.com/judge0/llm-companion/internal/config"
	"github.com/judge0/llm-companion/internal/credential"
	"github.com/judge0/llm-companion/internal/provider"
	"github.com/judge0/llm-companion/internal/relay"
	"github.com/judge0/llm-companion/internal/relayclient"
	"github.com/judge0/llm-companion/internal/storage/memory"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line       string
		wantAction replAction
		wantCmd    companion.Command
		wantErr    bool
	}{
		{"", actionNone, nil, false},
		{"   ", actionNone, nil, false},
		{"why does this loop?", actionDispatch, companion.SendChatMessage{Text: "why does this loop?"}, false},
		{"/quit", actionQuit, nil, false},
		{"/exit", actionQuit, nil, false},
		{"/help", actionHelp, nil, false},
		{"/providers", actionProviders, nil, false},
		{"/model claude-haiku", actionDispatch, companion.SelectModel{ProviderID: "claude-haiku"}, false},
		{"/model", actionNone, nil, true},
		{"/key openai-o1 sk-abc", actionDispatch, companion.SaveCredential{ProviderID: "openai-o1", APIKey: "sk-abc"}, false},
		{"/key openai-o1", actionNone, nil, true},
		{"/forget openai-o1", actionDispatch, companion.DeleteCredential{ProviderID: "openai-o1"}, false},
		{"/fix  IndexError: list index out of range", actionDispatch, companion.FixCode{ErrorText: "IndexError: list index out of range"}, false},
		{"/fix", actionDispatch, companion.FixCode{}, false},
		{"/explain", actionDispatch, companion.ExplainCode{}, false},
		{"/optimize", actionDispatch, companion.OptimizeCode{}, false},
		{"/deploy", actionNone, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			action, cmd, err := parseLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if action != tt.wantAction {
				t.Errorf("parseLine() action = %v, want %v", action, tt.wantAction)
			}
			if cmd != tt.wantCmd {
				t.Errorf("parseLine() cmd = %#v, want %#v", cmd, tt.wantCmd)
			}
		})
	}
}

func TestWriteProviders(t *testing.T) {
	mapping := relay.NewModelMapping("", map[string]string{"openai-o1": ""})
	entries := buildProviderList(provider.Default(), mapping)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeProviders(&buf, entries, false); err != nil {
			t.Fatalf("writeProviders() error = %v", err)
		}
		out := buf.String()
		if !strings.HasPrefix(out, "ID") {
			t.Errorf("missing header: %q", out)
		}
		if !strings.Contains(out, "anthropic/claude-3-sonnet") {
			t.Errorf("missing claude-sonnet mapping: %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeProviders(&buf, entries, true); err != nil {
			t.Fatalf("writeProviders() error = %v", err)
		}
		var got []providerEntry
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal() error = %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("len = %d, want 5", len(got))
		}
		if got[0].ID != "openai-gpt-4o" || got[0].Vendor != "OpenAI" {
			t.Errorf("first entry = %+v", got[0])
		}
	})
}

func TestCompanionAgainstRelay(t *testing.T) {
	var upstreamModel string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		upstreamModel = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"index":0,"message":{"role":"assistant","content":"Use a set instead of a list."}}]}`))
	}))
	defer upstream.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 3000, RequestTimeout: 5 * time.Second},
		Upstream: config.UpstreamConfig{APIKey: "or-test", BaseURL: upstream.URL},
		Relay:    config.RelayConfig{DefaultModel: "openai/gpt-4o-mini"},
	}
	srv := buildServer(cfg, logger, upstream.Client())
	relaySrv := httptest.NewServer(srv.Handler())
	defer relaySrv.Close()

	store := credential.NewStore(memory.New(), credential.NewCipher(credential.NewSession()),
		credential.WithLogger(logger))
	var out bytes.Buffer
	c := companion.New(store, relayclient.NewClient(relaySrv.URL+"/api"), newTerminalView(&out),
		companion.WithEditor(companion.StaticEditor{Source: "xs = [1, 2]\nprint(3 in xs)", Lang: "python"}),
		companion.WithLogger(logger),
	)

	input := strings.Join([]string{
		"/key claude-sonnet sk-ant-secret",
		"/model claude-sonnet",
		"/optimize",
		"/providers",
		"/quit",
		"never read",
	}, "\n")

	if err := runREPL(context.Background(), c, strings.NewReader(input), &out); err != nil {
		t.Fatalf("runREPL() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"API key saved successfully",
		"Using Claude 3.5 Sonnet (Anthropic)",
		"Use a set instead of a list.",
		"* claude-sonnet",
		"key stored",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "sk-ant-secret") {
		t.Error("output echoes the API key")
	}
	if upstreamModel != "anthropic/claude-3-sonnet" {
		t.Errorf("upstream model = %q, want anthropic/claude-3-sonnet", upstreamModel)
	}
}
