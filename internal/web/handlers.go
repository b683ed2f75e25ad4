package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"
)

// BoothInfo describes the booth for the status page.
type BoothInfo struct {
	Count   int    `json:"count"`
	OutDir  string `json:"outdir"`
	Printer string `json:"printer"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *EventBroadcaster
	Info        BoothInfo

	// Trigger injects a software button press. Nil disables POST /trigger.
	Trigger func()
	// BoothState reports the current indicator state ("idle", "capturing", ...).
	BoothState func() string
	// LatestMontage returns the path of the newest montage, or "".
	LatestMontage func() string

	staticFS fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *EventBroadcaster, info BoothInfo, trigger func(), boothState func() string, latestMontage func() string, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster:   broadcaster,
		Info:          info,
		Trigger:       trigger,
		BoothState:    boothState,
		LatestMontage: latestMontage,
		staticFS:      staticFS,
	}
}

// HandleInfo returns the booth description as JSON.
func (h *Handlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Info)
}

// HandleState returns the current booth state as JSON.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if h.BoothState != nil {
		state = h.BoothState()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"state": state})
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleTrigger handles POST /trigger to start a session without the
// physical button. A session already in progress is not queued behind.
func (h *Handlers) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	if h.Trigger == nil {
		http.Error(w, "trigger not configured", http.StatusServiceUnavailable)
		return
	}

	if h.BoothState != nil {
		switch h.BoothState() {
		case "capturing", "printing":
			http.Error(w, "session already in progress", http.StatusConflict)
			return
		}
	}

	h.Trigger()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "triggered"})
}

// HandleLatestMontage serves the newest montage image.
func (h *Handlers) HandleLatestMontage(w http.ResponseWriter, r *http.Request) {
	if h.LatestMontage == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	path := h.LatestMontage()
	if path == "" {
		http.Error(w, "no montage yet", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// HandleEventStream handles GET /events for SSE.
func (h *Handlers) HandleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
