package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats []scheduler.TriggerStats

func (s fixedStats) Stats() []scheduler.TriggerStats { return s }

func TestSchedulerStatus(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)

		rec := env.do(t, http.MethodGet, "/api/scheduler/status", nil, uuid.NewString())

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"enabled":false,"triggers":[]}`, rec.Body.String())
	})

	t.Run("running", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, fixedStats{
			{Kind: scheduler.KindReminder, Interval: "1m0s", State: scheduler.StateRunning, Runs: 3, Skipped: 1},
			{Kind: scheduler.KindArchival, Interval: "10m0s", State: scheduler.StateIdle},
		})

		rec := env.do(t, http.MethodGet, "/api/scheduler/status", nil, uuid.NewString())

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[SchedulerStatusResponse](t, rec)
		assert.True(t, resp.Enabled)
		require.Len(t, resp.Triggers, 2)
		assert.Equal(t, scheduler.KindReminder, resp.Triggers[0].Kind)
		assert.Equal(t, int64(3), resp.Triggers[0].Runs)
		assert.Equal(t, int64(1), resp.Triggers[0].Skipped)
	})

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodGet, "/api/scheduler/status", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
