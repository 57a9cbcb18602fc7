package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchpulse/branchpulse/internal/adapter/driving/web"
	"github.com/branchpulse/branchpulse/internal/application"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	factory := func(string) driven.GitHubClient { return nil }
	fetchSvc := application.NewFetchService(context.Background(), factory, nil, 100, 0)
	notifySvc := application.NewNotifyService(fetchSvc, nil)

	handler := web.NewHandler(fetchSvc, notifySvc, slog.Default())
	mux := http.NewServeMux()
	web.RegisterRoutes(mux, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDashboard(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestStaticAssets(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/static/app.js", "/static/app.css"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestNotifyPreview_NoSession(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/app/notify/preview", "application/json", strings.NewReader(`{"branches":["feature/a"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotifyPreview_InvalidBody(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/app/notify/preview", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
