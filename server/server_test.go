package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	fakeclientrepo "github.com/jrsteele09/nebula-bridge/clients/fakerepo"
	"github.com/jrsteele09/nebula-bridge/internal/config"
	"github.com/jrsteele09/nebula-bridge/internal/testpool"
	"github.com/jrsteele09/nebula-bridge/server"
	refreshrepofake "github.com/jrsteele09/nebula-bridge/token/refresh/repofake"
	"github.com/jrsteele09/nebula-bridge/userpool"
	fakeuserrepo "github.com/jrsteele09/nebula-bridge/users/repofake"
	"github.com/stretchr/testify/require"
)

func newRepos() userpool.Repos {
	return userpool.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Clients:       fakeclientrepo.NewFakeClientRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}
}

func newOpenServer(t *testing.T, options ...server.Option) *server.Server {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("LOCAL_POOL", "false")
	t.Setenv("USER_POOL_ID", "")
	t.Setenv("USER_POOL_CLIENT_ID", "")

	srv, err := server.New(context.Background(), config.New(), newRepos(), options...)
	require.NoError(t, err)
	return srv
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newOpenServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, false, body["authEnabled"])
	require.Equal(t, false, body["localPool"])
}

func TestEchoOpenWithoutPool(t *testing.T) {
	srv := newOpenServer(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"get greeting", http.MethodGet, "/api", "", http.StatusOK, "Hello from NebulaBridge Lambda function! Send a POST request with text to process it."},
		{"post echo", http.MethodPost, "/api", `{"text":"hi"}`, http.StatusOK, "NebulaBridge received your message: hi"},
		{"stage path", http.MethodPost, "/prod/", `{"text":"staged"}`, http.StatusOK, "NebulaBridge received your message: staged"},
		{"empty post", http.MethodPost, "/dev", "", http.StatusOK, "Hello from NebulaBridge Lambda function! Send a POST request with text to process it."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.message, decode(t, rec)["message"])
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestEchoMalformedBody(t *testing.T) {
	srv := newOpenServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, strings.HasPrefix(decode(t, rec)["message"].(string), "Error processing request: "))
}

type stubVerifier struct {
	token string
}

func (v stubVerifier) Verify(_ context.Context, rawToken string) (*server.Principal, error) {
	if rawToken != v.token {
		return nil, errors.New("unknown token")
	}
	return &server.Principal{Subject: "sub-1", Email: "ada@example.com"}, nil
}

func TestRequireAuth(t *testing.T) {
	srv := newOpenServer(t, server.WithTokenVerifier(stubVerifier{token: "good"}))

	tests := []struct {
		name   string
		method string
		auth   string
		status int
	}{
		{"missing header", http.MethodPost, "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodPost, "Basic good", http.StatusUnauthorized},
		{"bad token", http.MethodPost, "Bearer bad", http.StatusUnauthorized},
		{"good token", http.MethodPost, "Bearer good", http.StatusOK},
		{"preflight", http.MethodOptions, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api", strings.NewReader(`{"text":"x"}`))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				require.Equal(t, "Unauthorized", decode(t, rec)["message"])
			}
		})
	}
}

func postForm(t *testing.T, base, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(base+path, form)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestLocalPoolEndToEnd(t *testing.T) {
	pool := testpool.Start(t, true)

	signUp, err := http.Post(pool.URL+"/signup", "application/json",
		strings.NewReader(`{"clientId":"`+testpool.ClientID+`","username":"ada@example.com","password":"Passw0rd!","email":"ada@example.com"}`))
	require.NoError(t, err)
	_ = signUp.Body.Close()
	require.Equal(t, http.StatusOK, signUp.StatusCode)

	resp, body := postForm(t, pool.URL, "/oauth2/token", url.Values{
		"grant_type": {"password"},
		"client_id":  {testpool.ClientID},
		"username":   {"ada@example.com"},
		"password":   {"Passw0rd!"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	idToken := body["id_token"].(string)
	accessToken := body["access_token"].(string)

	// The echo API takes the ID token, not the access token
	for token, status := range map[string]int{idToken: http.StatusOK, accessToken: http.StatusUnauthorized} {
		req, err := http.NewRequest(http.MethodPost, pool.URL+"/api", strings.NewReader(`{"text":"hello"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		apiResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = apiResp.Body.Close()
		require.Equal(t, status, apiResp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, pool.URL+"/oauth2/userInfo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	infoResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer infoResp.Body.Close() //nolint:errcheck // best-effort close
	var info map[string]any
	require.NoError(t, json.NewDecoder(infoResp.Body).Decode(&info))
	require.Equal(t, "ada@example.com", info["email"])
}

func TestTokenEndpointErrors(t *testing.T) {
	pool := testpool.Start(t, true)

	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{"unknown client", url.Values{"grant_type": {"password"}, "client_id": {"nope"}}, http.StatusUnauthorized, "invalid_client"},
		{"unsupported grant", url.Values{"grant_type": {"client_credentials"}, "client_id": {testpool.ClientID}}, http.StatusBadRequest, "unsupported_grant_type"},
		{"bad password", url.Values{"grant_type": {"password"}, "client_id": {testpool.ClientID}, "username": {"x@example.com"}, "password": {"y"}}, http.StatusBadRequest, "invalid_grant"},
		{"bad refresh token", url.Values{"grant_type": {"refresh_token"}, "client_id": {testpool.ClientID}, "refresh_token": {"nope"}}, http.StatusBadRequest, "invalid_grant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postForm(t, pool.URL, "/oauth2/token", tt.form)
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, tt.code, body["error"])
		})
	}
}

func TestDiscovery(t *testing.T) {
	pool := testpool.Start(t, true)

	resp, err := http.Get(pool.URL + "/.well-known/openid-configuration")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Equal(t, pool.URL, doc["issuer"])
	require.Equal(t, pool.URL+"/.well-known/jwks.json", doc["jwks_uri"])
	require.Equal(t, pool.URL+"/oauth2/token", doc["token_endpoint"])
}
