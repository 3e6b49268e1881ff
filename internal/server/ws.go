package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/textlens/internal/service"
)

// watchInterval is how often batch progress is pushed to watchers.
const watchInterval = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleBatchWatch streams batch snapshots over a websocket until the batch
// completes, then sends the final snapshot and closes.
func (s *Server) handleBatchWatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.batches.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Batch not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Warn("websocket upgrade failed", "batch_id", id, "error", err)
		return
	}
	defer conn.Close()

	slog.Debug("batch watch started", "batch_id", id)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		snap, ok := s.batches.Get(id)
		if !ok {
			return
		}
		if err := conn.WriteJSON(snap); err != nil {
			slog.Debug("batch watcher disconnected", "batch_id", id, "error", err)
			return
		}
		if snap.Status == service.BatchStatusCompleted {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "batch completed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
