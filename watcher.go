package csvplot

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ReloadEvent is pushed to every registered preview channel after a
// successful re-render.
type ReloadEvent struct {
	Chart      string `json:"chart"`
	RenderedAt int64  `json:"renderedAt"`
}

// ReloadHub fans reload events out to the registered websocket channels.
// Channels should be buffered; a full channel drops the event rather than
// blocking the watcher, since a newer reload supersedes an older one anyway.
type ReloadHub struct {
	mutex    sync.Mutex
	channels []chan<- ReloadEvent
	logger   logrus.FieldLogger
}

func NewReloadHub() *ReloadHub {
	return &ReloadHub{
		channels: make([]chan<- ReloadEvent, 0),
		logger:   logrus.WithField("tag", "ReloadHub"),
	}
}

func (h *ReloadHub) RegisterChannel(c chan<- ReloadEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.channels = append(h.channels, c)
}

func (h *ReloadHub) DeregisterChannel(c chan<- ReloadEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.channels = Filter(h.channels, func(registered chan<- ReloadEvent) bool {
		return registered != c
	})
}

func (h *ReloadHub) Broadcast(event ReloadEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, channel := range h.channels {
		select {
		case channel <- event:
		default:
			h.logger.Warn("reload channel full, dropping event")
		}
	}
}

// SourceWatcher polls the source file's mtime and re-renders the chart when
// it changes, broadcasting a ReloadEvent on success. Polling keeps this
// portable and trivially testable; a 1s interval is plenty for a file a
// human is editing.
type SourceWatcher struct {
	source   string
	options  RenderOptions
	interval time.Duration
	hub      *ReloadHub

	// mtime observed at construction; changes are detected relative to it so
	// edits made between construction and the first tick are not lost.
	last time.Time

	wg     sync.WaitGroup
	logger logrus.FieldLogger
}

func NewSourceWatcher(source string, options RenderOptions, interval time.Duration, hub *ReloadHub) *SourceWatcher {
	w := &SourceWatcher{
		source:   source,
		options:  options,
		interval: Max(interval, 50*time.Millisecond),
		hub:      hub,
		logger:   logrus.WithField("tag", "SourceWatcher"),
	}
	w.last = w.mtime()
	return w
}

func (w *SourceWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *SourceWatcher) Wait() {
	w.wg.Wait()
}

func (w *SourceWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.last
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := w.mtime()
			if current.IsZero() || current.Equal(last) {
				continue
			}
			last = current

			output, err := Render(w.source, w.options)
			if err != nil {
				w.logger.WithError(err).Warn("re-render failed, keeping previous chart")
				continue
			}
			w.hub.Broadcast(ReloadEvent{
				Chart:      filepath.Base(output),
				RenderedAt: time.Now().Unix(),
			})
		}
	}
}

func (w *SourceWatcher) mtime() time.Time {
	info, err := os.Stat(w.source)
	if err != nil {
		w.logger.WithError(err).Debug("cannot stat source")
		return time.Time{}
	}
	return info.ModTime()
}
