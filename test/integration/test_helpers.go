//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-online-store/internal/app"
	"go-online-store/internal/config"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:              "0",
		ServerReadHeaderTimeout: 5 * time.Second,
		ServerWriteTimeout:      30 * time.Second,
		ServerIdleTimeout:       60 * time.Second,
		RequestTimeout:          30 * time.Second,
		DatabaseDriver:          "sqlite",
		DatabaseURL:             ":memory:",
		AutoMigrate:             true,
		JWTSecret:               "test-secret",
		JWTAccessTTL:            15 * time.Minute,
		JWTRefreshTTL:           24 * time.Hour,
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            1000,
		AuthRateLimitRPM:        1000,
		ProductPagination:       pagination.PageNumber,
		UserPagination:          pagination.LimitOffset,
		PageSize:                10,
		CatalogPageSize:         5,
		MaxPageSize:             100,
		StreamMaxDuration:       time.Minute,
		StreamIdleTimeout:       30 * time.Second,
		StreamHeartbeat:         10 * time.Second,
		DocsPath:                "../../docs/openapi.yaml",
		DocsRoute:               "/docs/store.yaml",
		SwaggerRoute:            "/docs",
		LogLevel:                "error",
		LogFormat:               "json",
		AdminUsername:           adminUsername,
		AdminPassword:           adminPassword,
	}
}

// newServer boots the whole application against a fresh in-memory database
// and returns it with an admin access token.
func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	application, err := app.New(testConfig())
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.Close()
	})

	pair := login(t, server.URL, adminUsername, adminPassword)
	return server, pair.AccessToken
}

func login(t *testing.T, baseURL string, username string, password string) model.TokenPair {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))

	var pair model.TokenPair
	resp.data(t, &pair)
	require.NotEmpty(t, pair.AccessToken)
	return pair
}

type apiResponse struct {
	status int
	raw    []byte
	body   struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *model.APIError `json:"error"`
		Meta    *model.Meta     `json:"meta"`
	}
}

func (r apiResponse) data(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body.Data, dst), string(r.raw))
}

func doJSON(t *testing.T, method string, url string, token string, payload any) apiResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{status: resp.StatusCode}
	out.raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(out.raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(out.raw, &out.body), string(out.raw))
	}
	return out
}
