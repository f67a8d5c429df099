package handlers

import (
	"net/http"
	"sync/atomic"
)

// Stats holds process-lifetime operation counters. Like everything else here
// they reset on restart.
type Stats struct {
	ImagesGenerated  atomic.Int64
	VideosGenerated  atomic.Int64
	ChatTurns        atomic.Int64
	OperationsFailed atomic.Int64
}

func (a *App) StatsDashboard(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"image_generated": a.Stats.ImagesGenerated.Load(),
		"video_generated": a.Stats.VideosGenerated.Load(),
		"chat_turns":      a.Stats.ChatTurns.Load(),
		"request_fail":    a.Stats.OperationsFailed.Load(),
		"credit_balance":  a.Ledger.Balance(),
	})
}
