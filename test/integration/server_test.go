package integration

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cruxgame/crux-server/internal/server"
	"github.com/cruxgame/crux-server/test/testhelpers"
)

// TestHealthEndpoint verifies the health check responds with plain text.
func TestHealthEndpoint(t *testing.T) {
	testServer, _ := setupWorldServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/plain")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "running") {
		t.Errorf("Health body = %q", body)
	}
}

// TestViewerPageEndpoint verifies the viewer page serves HTML.
func TestViewerPageEndpoint(t *testing.T) {
	testServer, _ := setupWorldServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, testServer.URL+"/test")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/html")
}

// TestWebSocketEndpointRejectsNonGet verifies the upgrade endpoint only
// accepts GET requests.
func TestWebSocketEndpointRejectsNonGet(t *testing.T) {
	testServer, _ := setupWorldServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, testServer.URL+"/ws")
	defer func() { _ = resp.Body.Close() }()

	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
}

// TestOriginValidation verifies upgrades from origins outside the
// allow-list are refused while allowed origins connect.
func TestOriginValidation(t *testing.T) {
	allowedOrigin := "http://allowed.test"
	testServer, _ := setupWorldServer(t, func(cfg *server.Config) {
		cfg.AllowedOrigins = []string{allowedOrigin}
	})

	wsURL := testhelpers.WebSocketURL(testServer.URL)

	if conn, err := testhelpers.ConnectWebSocket(wsURL, allowedOrigin); err != nil {
		t.Errorf("Allowed origin was rejected: %v", err)
	} else {
		_ = conn.Close()
	}

	if conn, err := testhelpers.ConnectWebSocket(wsURL, "http://blocked.test"); err == nil {
		_ = conn.Close()
		t.Error("Blocked origin was accepted")
	}
}
