package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/scene"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_SettingsWorkflow(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	srv := New(Config{Store: st})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings/long_hold", bytes.NewBufferString(`{"value":"60"}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, err = client.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Settings map[string]string `json:"settings"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if listed.Settings["long_hold"] != "60" {
		t.Errorf("settings = %v", listed.Settings)
	}

	resp, err = client.Post(ts.URL+"/api/phrases", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/phrases status = %d", resp.StatusCode)
	}
}

func TestFrames_WebSocket(t *testing.T) {
	app := &fakeApp{snap: scene.Snapshot{
		State:     scene.Sphere,
		Positions: []float32{1, 2, 3},
		Debug:     []string{"state: sphere"},
	}}
	srv := New(Config{App: app, FrameRate: 100})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/frames"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}

	var msg struct {
		Frame     int       `json:"frame"`
		State     string    `json:"state"`
		Color     string    `json:"color"`
		Positions []float32 `json:"positions"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if msg.State != "sphere" || len(msg.Positions) != 3 || msg.Positions[2] != 3 {
		t.Errorf("frame = %+v", msg)
	}
	if msg.Frame <= 0 || msg.Color != "#000000" {
		t.Errorf("frame = %d color = %s", msg.Frame, msg.Color)
	}
}

func TestStream_MJPEG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping OpenCV test in short mode")
	}

	app := &fakeApp{snap: scene.Snapshot{Positions: []float32{0, 0, 0}, Opacity: 1, PointSize: 2}}
	srv := New(Config{App: app})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	if strings.TrimSpace(line) != "--frame" {
		t.Errorf("first line = %q", line)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping listener test in short mode")
	}

	srv := New(Config{App: &fakeApp{}})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
