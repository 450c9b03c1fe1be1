package server

import "github.com/jrsteele09/nebula-bridge/userpool"

// Route path constants
const (
	RouteHealth = "/health"

	// Echo API. The stage paths let a client configured with a deployed
	// stage URL talk to a local server unchanged.
	RouteAPI = "/api"

	// Local user pool
	RouteSignUp        = "/signup"
	RouteConfirmSignUp = "/confirm-signup"

	// OAuth2 / OIDC Routes
	RouteWellKnownOpenIDConfig = userpool.PathDiscovery
	RouteWellKnownJWKS         = userpool.PathJWKS
	RouteOAuth2Token           = userpool.PathToken
	RouteOAuth2Revoke          = userpool.PathRevoke
	RouteUserInfo              = userpool.PathUserInfo
)

var apiStagePaths = []string{RouteAPI, "/prod", "/prod/{$}", "/dev", "/dev/{$}"}
