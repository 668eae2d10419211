package api

import (
	"net/http"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/scheduler"
)

// SchedulerStats reports the state of the background sweeps.
// *scheduler.Driver satisfies it.
type SchedulerStats interface {
	Stats() []scheduler.TriggerStats
}

// SchedulerStatusResponse is the body of GET /api/scheduler/status.
type SchedulerStatusResponse struct {
	Enabled  bool                     `json:"enabled"`
	Triggers []scheduler.TriggerStats `json:"triggers"`
}

// SchedulerHandler exposes the scheduler status. A nil source reports the
// scheduler as disabled.
type SchedulerHandler struct {
	stats SchedulerStats
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(stats SchedulerStats) *SchedulerHandler {
	return &SchedulerHandler{stats: stats}
}

// Status handles GET /api/scheduler/status.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := SchedulerStatusResponse{Triggers: []scheduler.TriggerStats{}}
	if h.stats != nil {
		resp.Enabled = true
		resp.Triggers = h.stats.Stats()
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
