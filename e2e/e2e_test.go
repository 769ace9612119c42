package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/yubimoji/internal/app"
	"github.com/ayusman/yubimoji/internal/capture"
	"github.com/ayusman/yubimoji/internal/classifier"
	"github.com/ayusman/yubimoji/internal/detector"
	"github.com/ayusman/yubimoji/internal/plugin"
	"github.com/ayusman/yubimoji/internal/server"
	"github.com/ayusman/yubimoji/internal/sign"
	"github.com/ayusman/yubimoji/internal/store"
)

func peakAt(t *testing.T, s string, p float64) []float64 {
	t.Helper()
	idx := sign.Index(s)
	if idx < 0 {
		t.Fatalf("unknown sign %q", s)
	}
	out := make([]float64, sign.ClassCount)
	rest := (1 - p) / float64(sign.ClassCount-1)
	for i := range out {
		out[i] = rest
	}
	out[idx] = p
	return out
}

// wsMessage mirrors the fields of server messages the test inspects.
type wsMessage struct {
	Type string `json:"type"`
	Sign *struct {
		Sign        string  `json:"sign"`
		Probability float64 `json:"probability"`
	} `json:"sign"`
	Word *struct {
		Reading string `json:"reading"`
		Word    string `json:"word"`
	} `json:"word"`
}

func TestE2E_CameraToWord(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("plugin script needs a POSIX shell")
	}

	tmpDir := t.TempDir()

	// Dictionary store seeded with the defaults.
	st, err := store.New(filepath.Join(tmpDir, "yubimoji.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()
	if _, err := st.Words().SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}
	dict, err := st.Words().Dictionary()
	if err != nil {
		t.Fatalf("Dictionary() error = %v", err)
	}

	// Classifier answering さ then き.
	answers := [][]float64{peakAt(t, "さ", 0.92), peakAt(t, "き", 0.7)}
	var calls atomic.Int32
	classifierSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(answers) {
			n = len(answers) - 1
		}
		json.NewEncoder(w).Encode(map[string]any{"prediction": [][]float64{answers[n]}})
	}))
	defer classifierSrv.Close()
	client, err := classifier.New(classifierSrv.URL)
	if err != nil {
		t.Fatalf("classifier.New() error = %v", err)
	}

	// Mock camera and detector.
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.SetFPS(30)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})

	application, err := app.New(app.Config{
		Predictor:         client,
		Dictionary:        dict,
		RequestsPerSecond: 5,
		Camera:            cam,
		Detector:          det,
	})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	// A plugin recording every resolved word.
	pluginRoot := filepath.Join(tmpDir, "plugins")
	pluginDir := filepath.Join(pluginRoot, "recorder")
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	wordsLog := filepath.Join(tmpDir, "words.log")
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","events":["word"]}`
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >> " + wordsLog + "\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	manager := plugin.NewManager(pluginRoot, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	dispatcher := plugin.NewDispatcher(manager, plugin.NewExecutor(5*time.Second), nil)
	application.AddObserver(dispatcher)

	srv := server.New(server.Config{Store: st, App: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/events", nil)
	if err != nil {
		t.Fatalf("dial /api/events: %v", err)
	}
	defer conn.Close()

	// The hub registers the client before its first read; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("GET /api/state: %v", err)
		}
		var state struct {
			Clients int `json:"clients"`
		}
		json.NewDecoder(resp.Body).Decode(&state)
		resp.Body.Close()
		if state.Clients == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("events client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Run("StartPipeline", func(t *testing.T) {
		if err := application.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/recognition", strings.NewReader(`{"enabled": true}`))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/recognition: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("ResolvesWord", func(t *testing.T) {
		var signs []string
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read event: %v (signs so far %v)", err, signs)
			}
			if msg.Type == "sign" && msg.Sign != nil {
				signs = append(signs, msg.Sign.Sign)
			}
			if msg.Type == "word" {
				if msg.Word.Word != "先" || msg.Word.Reading != "さき" {
					t.Fatalf("word = %+v, want 先 (さき)", msg.Word)
				}
				break
			}
		}
		if len(signs) < 2 || signs[0] != "さ" || signs[1] != "き" {
			t.Errorf("signs = %v, want [さ き ...]", signs)
		}
	})

	t.Run("StreamServesFrames", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /api/stream: %v", err)
		}
		defer resp.Body.Close()
		buf := make([]byte, 64)
		n, _ := resp.Body.Read(buf)
		if !strings.Contains(string(buf[:n]), "--frame") {
			t.Errorf("stream did not start with a frame part: %q", buf[:n])
		}
	})

	t.Run("ResetClearsPending", func(t *testing.T) {
		application.Stop()
		application.Session().Wait()
		if p := application.Session().State().Pending; p == "" {
			t.Fatal("expected a pending sign before reset")
		}
		resp, err := http.Post(ts.URL+"/api/reset", "application/json", nil)
		if err != nil {
			t.Fatalf("POST /api/reset: %v", err)
		}
		resp.Body.Close()
		if p := application.Session().State().Pending; p != "" {
			t.Errorf("pending after reset = %q", p)
		}
	})

	t.Run("PluginReceivedWord", func(t *testing.T) {
		if err := dispatcher.Close(context.Background()); err != nil {
			t.Fatalf("dispatcher.Close() error = %v", err)
		}
		data, err := os.ReadFile(wordsLog)
		if err != nil {
			t.Fatalf("plugin never ran: %v", err)
		}
		if !strings.Contains(string(data), `"word":"先"`) {
			t.Errorf("plugin log = %s", data)
		}
	})
}
