// Package web exposes a read-only JSON view of a terminal fleet, for
// wiring into whatever HTTP server the host process already runs.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/receptorhq/receptor-go/sdk"
	"github.com/receptorhq/receptor-go/status"
)

type Inspector struct {
	sdk *sdk.SDK
}

func NewInspector(s *sdk.SDK) *Inspector {
	return &Inspector{sdk: s}
}

// Routes returns the inspector's router, mountable under any prefix.
func (i *Inspector) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/terminals", i.HandleTerminals)
	r.Get("/terminals/{id}/stats", i.HandleTerminalStats)
	return r
}

type terminalSummary struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
}

func (i *Inspector) HandleTerminals(w http.ResponseWriter, r *http.Request) {
	ids := i.sdk.Terminals()
	terminals := make([]terminalSummary, 0, len(ids))
	for _, id := range ids {
		connected, err := i.sdk.IsConnected(id)
		if err != nil {
			// Unregistered between snapshot and read; skip it.
			continue
		}
		terminals = append(terminals, terminalSummary{ID: id, Connected: connected})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"terminals": terminals,
		"count":     len(terminals),
	})
}

type terminalStats struct {
	ID                   string  `json:"id"`
	Connected            bool    `json:"connected"`
	UptimeSeconds        float64 `json:"uptimeSeconds"`
	SignalsSent          uint64  `json:"signalsSent"`
	BinaryFramesSent     uint64  `json:"binaryFramesSent"`
	DirectivesReceived   uint64  `json:"directivesReceived"`
	BinaryFramesReceived uint64  `json:"binaryFramesReceived"`
	Errors               uint64  `json:"errors"`
	ReconnectAttempts    uint64  `json:"reconnectAttempts"`
}

func (i *Inspector) HandleTerminalStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	stats, err := i.sdk.Stats(id)
	if err != nil {
		if status.CodeOf(err) == status.TerminalNotFound {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, terminalStats{
		ID:                   id,
		Connected:            stats.Connected,
		UptimeSeconds:        stats.Uptime.Round(time.Millisecond).Seconds(),
		SignalsSent:          stats.SignalsSent,
		BinaryFramesSent:     stats.BinaryFramesSent,
		DirectivesReceived:   stats.DirectivesReceived,
		BinaryFramesReceived: stats.BinaryFramesReceived,
		Errors:               stats.Errors,
		ReconnectAttempts:    stats.ReconnectAttempts,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode inspector response", "error", err)
	}
}
