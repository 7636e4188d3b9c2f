package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/evently/internal/repository"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJSONErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"event not found", repository.ErrEventNotFound, http.StatusNotFound},
		{"seat not found", repository.ErrSeatNotFound, http.StatusNotFound},
		{"booking not found", repository.ErrBookingNotFound, http.StatusNotFound},
		{"conflict", fmt.Errorf("%w: seat already booked", repository.ErrConflict), http.StatusConflict},
		{"event exists", repository.ErrEventExists, http.StatusConflict},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"lock wait timeout", errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"), http.StatusConflict},
		{"deadlock victim", errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction"), http.StatusConflict},
		{"anything else", errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, jsonError(c, tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestJSONErrorHidesInternalDetail(t *testing.T) {
	c, rec := newTestContext(t)
	require.NoError(t, jsonError(c, errors.New("dsn user:pass@tcp(...)")))
	assert.NotContains(t, rec.Body.String(), "dsn")
}

func TestGetUserIDClaimTypes(t *testing.T) {
	c, _ := newTestContext(t)
	c.Set("user_id", float64(42))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.Set("user_id", "17")
	id, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), id)

	c.Set("user_id", nil)
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestPathID(t *testing.T) {
	c, _ := newTestContext(t)
	c.SetParamNames("id")
	c.SetParamValues("42")
	id, ok := pathID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	c.SetParamValues("not-a-number")
	_, ok = pathID(c, "id")
	assert.False(t, ok)

	c.SetParamValues("0")
	_, ok = pathID(c, "id")
	assert.False(t, ok)
}
