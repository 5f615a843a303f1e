package csvplot

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"os/exec"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

//go:embed webui
var webuiFiles embed.FS

// Per-connection event buffer. Reload events are tiny and coalescing is
// harmless, so this never needs to be large.
const reloadBufferSize = 16

// previewMetadata is what /metadata reports about the current render.
type previewMetadata struct {
	Source string `json:"source"`
	Chart  string `json:"chart"`
	Title  string `json:"title"`
	YUnit  YUnit  `json:"yUnit"`
}

// PreviewServer serves the rendered chart in a browser: the embedded page at
// /, the PNG itself at /chart.png, render metadata at /metadata, and a
// websocket at /ws that tells the page to reload the image whenever the
// watcher has re-rendered.
type PreviewServer struct {
	hub       *ReloadHub
	addr      string
	chartPath string
	metadata  previewMetadata
	mux       *http.ServeMux
	logger    logrus.FieldLogger
}

func NewPreviewServer(hub *ReloadHub, addr string, source string, chartPath string, options RenderOptions) *PreviewServer {
	title := options.Title
	if title == "" {
		title = sourceStem(source)
	}
	unit, _ := ParseYUnit(string(options.YUnit))

	s := &PreviewServer{
		hub:       hub,
		addr:      addr,
		chartPath: chartPath,
		metadata: previewMetadata{
			Source: source,
			Chart:  chartPath,
			Title:  title,
			YUnit:  unit,
		},
		mux:    http.NewServeMux(),
		logger: logrus.WithField("tag", "PreviewServer"),
	}

	subFS, err := fs.Sub(webuiFiles, "webui")
	if err != nil {
		panic(err)
	}

	s.mux.Handle("/", http.FileServer(http.FS(subFS)))
	s.mux.HandleFunc("/chart.png", s.handleChart)
	s.mux.HandleFunc("/metadata", s.handleMetadata)
	s.mux.HandleFunc("/ws", s.handleWebSocket)

	return s
}

// Handler exposes the mux, mostly for tests.
func (s *PreviewServer) Handler() http.Handler {
	return s.mux
}

func (s *PreviewServer) handleChart(w http.ResponseWriter, req *http.Request) {
	http.ServeFile(w, req, s.chartPath)
}

func (s *PreviewServer) handleMetadata(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(s.metadata)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
	}
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx) // We only ever push reload events, never read.

	channel := make(chan ReloadEvent, reloadBufferSize)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case event, open := <-channel:
				if !open {
					s.logger.Warn("event channel closed, closing websocket")
					c.Close(websocket.StatusNormalClosure, "channel closed")
					return
				}

				err := wsjson.Write(ctx, c, event)
				if err != nil {
					// The websocket closed under us; nothing left to send.
					s.logger.Warn("websocket write failed and closed")
					return
				}
			case <-ctx.Done():
				s.logger.Info("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	s.hub.RegisterChannel(channel)

	// Once the websocket writing goroutine finishes, deregister the channel
	// from the hub before it is closed.
	wg.Wait()
	s.hub.DeregisterChannel(channel)
	close(channel)
}

func (s *PreviewServer) Run() error {
	s.logger.Infof("serving chart preview at http://%s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// OpenBrowser best-effort opens url in the default browser. Failures are
// logged, not returned: the preview stays reachable by hand either way.
func OpenBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	err := exec.Command(cmd, args...).Start()
	if err != nil {
		logrus.Warn("failed to start web browser automatically")
	}
}
