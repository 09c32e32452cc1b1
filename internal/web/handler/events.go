package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EventsPath is the change stream endpoint. It is the only path that is not
// looked up in the root directory.
const EventsPath = "/__devserve/events"

// KeepaliveInterval is how often an idle change stream gets a comment line.
var KeepaliveInterval = 15 * time.Second

// Events handles the SSE endpoint streaming file changes to the browser.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	// Send initial keepalive.
	if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(KeepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case c, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(c)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
