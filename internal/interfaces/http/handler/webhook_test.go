package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookHandler_RandomnessCallback(t *testing.T) {
	t.Run("settles the draw and completes the raffle", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 1, 1)

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		w, _ = env.do(t, http.MethodPost, "/webhooks/randomness", gin.H{
			"request_id":   "vrf-req-1",
			"random_words": []string{"982451653"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, resp := env.do(t, http.MethodGet, "/raffles/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "COMPLETED", data["status"])
		assert.Equal(t, float64(1), data["winner_ticket_number"])
	})

	t.Run("unknown request id is 404", func(t *testing.T) {
		env := newTestEnv(t)

		w, resp := env.do(t, http.MethodPost, "/webhooks/randomness", gin.H{
			"request_id":   "vrf-req-unknown",
			"random_words": []string{"7"},
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "UNKNOWN_REQUEST", resp.Error.Code)
	})

	t.Run("empty random words fail binding", func(t *testing.T) {
		env := newTestEnv(t)

		w, _ := env.do(t, http.MethodPost, "/webhooks/randomness", gin.H{
			"request_id":   "vrf-req-1",
			"random_words": []string{},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsold winning number fails the draw", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 2, 1)

		w, resp := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)
		drawID := resp.Data.(map[string]any)["id"].(string)

		// 1 mod 2 + 1 selects ticket 2, which was never sold
		w, _ = env.do(t, http.MethodPost, "/webhooks/randomness", gin.H{
			"request_id":   "vrf-req-1",
			"random_words": []string{"1"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, resp = env.do(t, http.MethodGet, "/draws/"+drawID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "FAILED", data["status"])
		assert.Contains(t, data["failure_reason"], "not allocated")

		// The raffle holds in DRAWING for an operator to resume or cancel
		w, resp = env.do(t, http.MethodGet, "/raffles/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "DRAWING", resp.Data.(map[string]any)["status"])
	})

	t.Run("duplicate callback is acknowledged without effect", func(t *testing.T) {
		env := newTestEnv(t)
		id := soldRaffle(t, env, 1, 1)

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/draws", gin.H{
			"executed_by": uuid.NewString(),
		})
		require.Equal(t, http.StatusAccepted, w.Code)

		for range 2 {
			w, _ = env.do(t, http.MethodPost, "/webhooks/randomness", gin.H{
				"request_id":   "vrf-req-1",
				"random_words": []string{"42"},
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
	})
}

func TestWebhookHandler_PaymentCaptured(t *testing.T) {
	subscribePayments := func(env *testEnv) {
		idempotency := cache.NewInMemoryIdempotencyStore()
		handler := raffleapp.NewPaymentCapturedHandler(
			env.raffleRepo, env.ticketRepo, env.publisher, idempotency, nil)
		env.publisher.handlers = append(env.publisher.handlers, handler)
	}

	t.Run("marks the order's tickets paid", func(t *testing.T) {
		env := newTestEnv(t)
		subscribePayments(env)
		id := env.createRaffle(t, 10, 0)
		env.publishRaffle(t, id)
		orderID := uuid.NewString()

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/purchases", gin.H{
			"customer_id": uuid.NewString(),
			"order_id":    orderID,
			"quantity":    2,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w, _ = env.do(t, http.MethodPost, "/webhooks/payment-captured", gin.H{
			"order_id": orderID,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, resp := env.do(t, http.MethodGet, "/raffles/"+id.String()+"/tickets?status=PAID", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, resp.Data.([]any), 2)
	})

	t.Run("paying the last ticket marks the raffle sold out", func(t *testing.T) {
		env := newTestEnv(t)
		subscribePayments(env)
		id := env.createRaffle(t, 2, 0)
		env.publishRaffle(t, id)
		orderID := uuid.NewString()

		w, _ := env.do(t, http.MethodPost, "/raffles/"+id.String()+"/purchases", gin.H{
			"customer_id": uuid.NewString(),
			"order_id":    orderID,
			"quantity":    2,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w, _ = env.do(t, http.MethodPost, "/webhooks/payment-captured", gin.H{
			"order_id": orderID,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w, resp := env.do(t, http.MethodGet, "/raffles/"+id.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "SOLD_OUT", resp.Data.(map[string]any)["status"])
	})

	t.Run("malformed order id fails binding", func(t *testing.T) {
		env := newTestEnv(t)

		w, _ := env.do(t, http.MethodPost, "/webhooks/payment-captured", gin.H{
			"order_id": "order-1",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
