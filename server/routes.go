package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/nebula-bridge/echo"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// Echo API, preflight stays open
	apiHandler := ChainMiddleware(echo.Handler(), s.APIMiddleware(s.RequireAuth())...)
	for _, path := range apiStagePaths {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodOptions} {
			s.RegisterRouteHandler(method+" "+path, apiHandler)
		}
	}

	if s.pool == nil {
		return
	}

	// Local user pool
	s.RegisterRouteHandler("POST "+RouteSignUp, ChainMiddleware(s.SignUp(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteConfirmSignUp, ChainMiddleware(s.ConfirmSignUp(), s.APIMiddleware()...))

	// OAuth2 / OIDC API routes
	s.RegisterRouteHandler("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuth2Revoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"app":         s.config.GetAppName(),
			"authEnabled": s.verifier != nil,
			"localPool":   s.pool != nil,
		})
	}
}
