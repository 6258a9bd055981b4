// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/traverse-tui/internal/instruction"
)

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/api/v1/", staticToken("tok-1")).
		WithHTTPClient(srv.Client()).
		WithRateLimit(0, 0)
	return c, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFormatDateForAPI(t *testing.T) {
	assert.Equal(t, "2025/03/07", FormatDateForAPI(2025, 3, 7))
	start, end := YearDateRange(2024)
	assert.Equal(t, "2024/01/01", start)
	assert.Equal(t, "2024/12/31", end)
}

func TestClient_Instructions(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/withdraw-instruction/status", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("statusId"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		writeJSON(w, map[string]any{
			"success": true,
			"message": "ok",
			"data": []map[string]any{
				{"id": "10", "customerName": "Acme", "amount": 1200.5, "currencyType": "USD", "canApprove": true},
			},
		})
	})

	items, err := c.Instructions(context.Background(), instruction.StatusPending)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme", items[0].CustomerName)
	assert.InDelta(t, 1200.5, items[0].Amount, 1e-9)
	assert.True(t, items[0].CanApprove)
}

func TestClient_ChartDataDefaultsToCurrentYear(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2025/01/01", q.Get("startDate"))
		assert.Equal(t, "2025/12/31", q.Get("endDate"))
		assert.Equal(t, "ACC-1", q.Get("accountNumber"))
		writeJSON(w, map[string]any{
			"success": true,
			"data": map[string]any{
				"monthlyInstructions": []map[string]any{{"month": "Jan", "approvedApplications": 4}},
				"monthlyAmount":       []map[string]any{{"month": "Jan", "creditedAmount": 10}},
			},
		})
	})
	c.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

	chart, err := c.ChartData(context.Background(), "ACC-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, 4, instruction.Totals(chart).Approved)
}

func TestClient_EnvelopeFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "message": "Account not found"})
	})

	_, err := c.ExistingAccounts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsuccessful))
	assert.Contains(t, err.Error(), "Account not found")

	// The generic call still hands back the envelope.
	r, err := Get[[]instruction.Account](context.Background(), c, PathExistingAccounts)
	require.NoError(t, err)
	assert.False(t, r.Success)
}

func TestClient_StatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.InstructionDetails(context.Background(), "7", instruction.StatusAccepted)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.True(t, se.Unauthorized())
	assert.Contains(t, se.Error(), "status: 401")
}

func TestClient_RetriesServerErrorsOnGet(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]any{"success": true, "data": []any{}})
	})

	_, err := c.ExistingAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_UpdateInstructionNotRetried(t *testing.T) {
	var calls atomic.Int32
	var got instruction.Decision
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/withdraw-instruction/update-withdraw-Operation", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	d, err := instruction.NewDecision("55", instruction.StatusAccepted, "looks fine")
	require.NoError(t, err)

	err = c.UpdateInstruction(context.Background(), d)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, d, got)
}

func TestClient_UpdateInstructionEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	d, err := instruction.NewDecision("55", instruction.StatusRejected, "no")
	require.NoError(t, err)
	assert.NoError(t, c.UpdateInstruction(context.Background(), d))
}

func TestClient_Observer(t *testing.T) {
	var endpoints []string
	var statuses []int
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": []any{}})
	})
	c.WithObserver(func(endpoint string, status int, _ time.Duration) {
		endpoints = append(endpoints, endpoint)
		statuses = append(statuses, status)
	})

	_, err := c.Instructions(context.Background(), instruction.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, []string{PathInstructions}, endpoints)
	assert.Equal(t, []int{http.StatusOK}, statuses)
}

func TestClient_GenericVerbs(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": r.Method})
	})
	ctx := context.Background()

	r, err := Put[string](ctx, c, "/things/1", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, r.Data)

	r, err = Delete[string](ctx, c, "things/1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, r.Data)
}
