package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// soldRaffle creates, publishes and sells tickets so a draw can start
func soldRaffle(t *testing.T, env *testEnv, totalTickets, sold int) uuid.UUID {
	t.Helper()
	id := env.createRaffle(t, totalTickets, 0)
	env.publishRaffle(t, id)
	w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/purchases", gin.H{
		"customer_id": uuid.NewString(),
		"order_id":    uuid.NewString(),
		"quantity":    sold,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return id
}

func TestDrawHandler_StartDraw(t *testing.T) {
	t.Run("accepts the draw and reports REQUESTED", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 4)

		w, resp := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})

		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		data := resp.Data.(map[string]any)
		assert.Equal(t, "REQUESTED", data["status"])
		assert.Equal(t, "vrf-req-1", data["randomness_request_id"])

		w, resp = env.do(t, http.MethodGet, "/raffles/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "DRAWING", resp.Data.(map[string]any)["status"])
	})

	t.Run("second draw is rejected while one is in flight", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 4)

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		w, resp := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "DRAW_ALREADY_IN_PROGRESS", resp.Error.Code)
	})

	t.Run("raffle without sales cannot draw", func(t *testing.T) {
		env := newTestEnv(t)
		id := env.createRaffle(t, 10, 0)
		env.publishRaffle(t, id)

		w, resp := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "EMPTY_RAFFLE", resp.Error.Code)
	})

	t.Run("failed randomness request rolls the raffle back", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 4)
		env.randomness.err = assert.AnError

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		w, resp := env.do(t, http.MethodGet, "/raffles/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ACTIVE", resp.Data.(map[string]any)["status"])
	})

	t.Run("missing executed_by fails binding", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 4)

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDrawHandler_Queries(t *testing.T) {
	t.Run("lists draws for a raffle", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 2)

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		w, resp := env.do(t, http.MethodGet, "/raffles/"+id.String()+"/draws", nil)

		require.Equal(t, http.StatusOK, w.Code)
		draws := resp.Data.([]any)
		require.Len(t, draws, 1)
		assert.Equal(t, "REQUESTED", draws[0].(map[string]any)["status"])
	})

	t.Run("fetches a draw by id", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 10, 2)

		w, resp := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)
		drawID := resp.Data.(map[string]any)["id"].(string)

		w, resp = env.do(t, http.MethodGet, "/draws/"+drawID, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, drawID, resp.Data.(map[string]any)["id"])
	})

	t.Run("unknown draw is 404", func(t *testing.T) {
		env := newTestEnv(t)

		w, resp := env.do(t, http.MethodGet, "/draws/"+uuid.NewString(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})
}
