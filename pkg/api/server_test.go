package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avoronov/slotbot/pkg/booking"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	schema := store.Schema{
		Categories:          []string{"Programming", "Accounting"},
		SlotCount:           4,
		DefaultCapacity:     2,
		DefaultLimitPerUser: 1,
	}
	st := store.New(store.DefaultSnapshot(schema), schema, nil, logger.Noop())
	return New(":0", st, logger.Noop()), st
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestScheduleOmitsUsersAndEmptySlots(t *testing.T) {
	ctx := context.Background()
	srv, st := newTestServer(t)
	eng := booking.New(st, logger.Noop())

	require.NoError(t, st.SetSlotTitle(ctx, "Programming", "S1", "Mon 18:00"))
	res, err := eng.Book(ctx, "Programming", "S1", "Secret Name")
	require.NoError(t, err)
	require.Equal(t, booking.Ok, res)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Categories, 2)
	prog := resp.Categories[0]
	assert.Equal(t, "Programming", prog.Name)
	require.Len(t, prog.Slots, 1, "unconfigured slots must be hidden")
	assert.Equal(t, scheduleSlot{Title: "Mon 18:00", Taken: 1, Free: 1}, prog.Slots[0])

	assert.NotContains(t, rec.Body.String(), "Secret Name")

	acc := resp.Categories[1]
	assert.Equal(t, "Accounting", acc.Name)
	assert.Empty(t, acc.Slots)
}

func TestScheduleEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Categories, 2)
}
