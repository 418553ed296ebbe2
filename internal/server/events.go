package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const keepAliveInterval = 15 * time.Second

// handleEvents streams the session's snapshots as server-sent events. Each
// event carries the snapshot version as its id. The stream ends with a
// "closed" event when the session is torn down. An attached stream keeps the
// session from expiring.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	release := s.sessions.Hold(sess)
	defer release()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warn("event stream not flushable", "error", err)
		return
	}

	snaps, cancel := sess.Store.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap, ok := <-snaps:
			if !ok {
				fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				rc.Flush()
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				s.log.Error("encode snapshot", "session", sess.ID, "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
