package csvplot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func newTestServer(t *testing.T) (*PreviewServer, *ReloadHub, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	source := writeCSV(t, dir, "data.csv", continentsCSV)
	output, err := Render(source, RenderOptions{})
	if err != nil {
		t.Fatalf("rendering fixture: %v", err)
	}

	hub := NewReloadHub()
	server := NewPreviewServer(hub, "localhost:0", source, output, RenderOptions{Title: "preview test"})
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)
	return server, hub, httpServer
}

func TestPreviewServerMetadata(t *testing.T) {
	_, _, httpServer := newTestServer(t)

	resp, err := http.Get(httpServer.URL + "/metadata")
	if err != nil {
		t.Fatalf("GET /metadata: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %q", got)
	}

	var metadata previewMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		t.Fatalf("decoding metadata: %v", err)
	}
	if metadata.Title != "preview test" {
		t.Fatalf("unexpected title: %q", metadata.Title)
	}
	if metadata.YUnit != UnitPercent {
		t.Fatalf("unexpected y unit: %q", metadata.YUnit)
	}
	if !strings.HasSuffix(metadata.Chart, "_recreated.png") {
		t.Fatalf("unexpected chart path: %q", metadata.Chart)
	}
}

func TestPreviewServerChart(t *testing.T) {
	_, _, httpServer := newTestServer(t)

	resp, err := http.Get(httpServer.URL + "/chart.png")
	if err != nil {
		t.Fatalf("GET /chart.png: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// PNG magic bytes.
	if len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Fatal("response is not a PNG")
	}
}

func TestPreviewServerIndex(t *testing.T) {
	_, _, httpServer := newTestServer(t)

	resp, err := http.Get(httpServer.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), "chart.png") {
		t.Fatal("index page does not reference the chart image")
	}
}

func TestPreviewServerWebSocket(t *testing.T) {
	_, hub, httpServer := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(httpServer.URL, "http://", "ws://", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The handler registers with the hub after the handshake; keep
	// broadcasting until the event arrives so the test does not race it.
	received := make(chan ReloadEvent, 1)
	go func() {
		var event ReloadEvent
		if err := wsjson.Read(ctx, conn, &event); err == nil {
			received <- event
		}
	}()

	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case event := <-received:
			if event.Chart != "data_recreated.png" {
				t.Fatalf("unexpected event: %+v", event)
			}
			return
		case <-ticker.C:
			hub.Broadcast(ReloadEvent{Chart: "data_recreated.png", RenderedAt: time.Now().Unix()})
		case <-ctx.Done():
			t.Fatal("timed out waiting for reload event")
		}
	}
}
