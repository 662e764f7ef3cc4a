package e2e

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/server"
)

// fakeGemini answers generateContent with a fixed translation and records
// the prompts it received.
type fakeGemini struct {
	mu      sync.Mutex
	prompts []string
}

func (g *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.prompts = append(g.prompts, string(body))
	g.mu.Unlock()

	text := `{"traduccion":"Hello","confianza_modelo":"Alta","target_language":"English"}`
	reply, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			}},
		},
	})
	w.Header().Set("Content-Type", "application/json")
	w.Write(reply)
}

func (g *fakeGemini) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func installRecorder(t *testing.T, root, out string) {
	t.Helper()
	dir := filepath.Join(root, "recorder")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >> " + out + "\necho >> " + out + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","events":["translation"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping e2e test on Windows")
	}

	tmpDir := t.TempDir()
	pluginDir := filepath.Join(tmpDir, "plugins")
	received := filepath.Join(tmpDir, "received.jsonl")
	installRecorder(t, pluginDir, received)

	gemini := &fakeGemini{}
	geminiSrv := httptest.NewServer(gemini)
	defer geminiSrv.Close()

	cfg := config.Default()
	cfg.Store.Path = filepath.Join(tmpDir, "mudra.db")
	cfg.Server.Enabled = false
	cfg.Tray.Enabled = false
	cfg.Console.Enabled = false
	cfg.Plugins.Enabled = true
	cfg.Plugins.Dir = pluginDir
	cfg.Interpreter.Provider = interpret.ProviderGemini
	cfg.Interpreter.APIKey = "test-key"
	cfg.Interpreter.BaseURL = geminiSrv.URL + "/v1beta/models"

	// Noise keeps the encoded stills well above the blank-frame cutoff.
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer mat.Close()
	gocv.RandU(&mat, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(255, 255, 255, 0))

	mockDetector := detector.NewMockDetector()
	application, err := app.New(cfg, app.Deps{
		Camera:   capture.NewMockCamera([]*gocv.Mat{&mat}, true),
		Detector: mockDetector,
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ts := httptest.NewServer(application.Handler())
	defer ts.Close()
	client := ts.Client()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial events: %v", err)
	}
	defer conn.Close()

	var first server.Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read status event: %v", err)
	}
	if first.Type != server.EventStatus {
		t.Fatalf("first event = %q, want %q", first.Type, server.EventStatus)
	}

	getStatus := func(t *testing.T) engine.Status {
		t.Helper()
		resp, err := client.Get(ts.URL + "/api/status")
		if err != nil {
			t.Fatalf("get status: %v", err)
		}
		defer resp.Body.Close()
		var st engine.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		return st
	}

	t.Run("PauseAndResume", func(t *testing.T) {
		for _, path := range []string{"/api/pause", "/api/resume"} {
			resp, err := client.Post(ts.URL+path, "application/json", nil)
			if err != nil {
				t.Fatalf("POST %s: %v", path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("POST %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
			}
		}
		if getStatus(t).Paused {
			t.Error("engine still paused after resume")
		}
	})

	t.Run("SetLanguage", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/language", strings.NewReader(`{"language":"en"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT language: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("PUT language status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if got := getStatus(t).Language; got != "English" {
			t.Errorf("language = %q, want English", got)
		}
	})

	t.Run("GestureIsTranslated", func(t *testing.T) {
		// A hand sweeps across the picture, then leaves.
		mockDetector.Queue(detector.SweepLandmarks(15, 0.1)...)

		var result *engine.Translation
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for result == nil {
			var ev server.Event
			if err := conn.ReadJSON(&ev); err != nil {
				t.Fatalf("waiting for result event: %v", err)
			}
			if ev.Type == server.EventResult {
				result = ev.Translation
			}
		}

		if result.Text != "Hello" {
			t.Errorf("text = %q, want Hello", result.Text)
		}
		if result.Confidence != interpret.ConfidenceHigh {
			t.Errorf("confidence = %q, want High", result.Confidence)
		}
		if result.Reason != engine.ReasonHandsExit {
			t.Errorf("reason = %q, want %q", result.Reason, engine.ReasonHandsExit)
		}
		if result.Frames < 2 {
			t.Errorf("frames = %d, want at least 2", result.Frames)
		}

		prompts := gemini.Prompts()
		if len(prompts) != 1 {
			t.Fatalf("gemini calls = %d, want 1", len(prompts))
		}
		if !strings.Contains(prompts[0], "Target Language: English") {
			t.Errorf("prompt does not name the target language: %.200s", prompts[0])
		}
	})

	t.Run("HistoryAndPlugins", func(t *testing.T) {
		var list struct {
			Translations []struct {
				Text     string `json:"text"`
				Language string `json:"language"`
				Reason   string `json:"reason"`
			} `json:"translations"`
		}

		deadline := time.Now().Add(2 * time.Second)
		for {
			resp, err := client.Get(ts.URL + "/api/translations")
			if err != nil {
				t.Fatalf("list translations: %v", err)
			}
			err = json.NewDecoder(resp.Body).Decode(&list)
			resp.Body.Close()
			if err != nil {
				t.Fatalf("decode translations: %v", err)
			}
			if len(list.Translations) > 0 || time.Now().After(deadline) {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if len(list.Translations) != 1 {
			t.Fatalf("stored translations = %d, want 1", len(list.Translations))
		}
		if got := list.Translations[0]; got.Text != "Hello" || got.Language != "English" {
			t.Errorf("stored = %+v", got)
		}

		var data []byte
		deadline = time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			data, _ = os.ReadFile(received)
			if len(data) > 0 {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if !strings.Contains(string(data), `"text":"Hello"`) {
			t.Errorf("plugin did not receive the translation, got %q", data)
		}
	})

	t.Run("ClearHistory", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/translations", nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("DELETE translations: %v", err)
		}
		defer resp.Body.Close()

		var out struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode delete: %v", err)
		}
		if out.Deleted != 1 {
			t.Errorf("deleted = %d, want 1", out.Deleted)
		}
	})
}
