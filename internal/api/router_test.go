package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"order-tracking/internal/modules/tracking"
)

func TestSetupRoutes(t *testing.T) {
	e := echo.New()
	SetupRoutes(e, "secret", tracking.NewHandler(nil, tracking.NewRoomBroadcaster(nil)))

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/tracking/O1", http.StatusUnauthorized},
		{http.MethodPost, "/tracking/O1/location", http.StatusUnauthorized},
		{http.MethodGet, "/ws/tracking", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}
