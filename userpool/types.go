package userpool

import "github.com/jrsteele09/nebula-bridge/token/keys"

const TokenTypeBearer = "Bearer"

// SignUpOutput is returned by SignUp. UserConfirmed false means the caller
// must confirm the code sent to CodeDeliveryDestination.
type SignUpOutput struct {
	UserConfirmed           bool   `json:"userConfirmed"`
	UserSub                 string `json:"userSub"`
	CodeDeliveryDestination string `json:"codeDeliveryDestination,omitempty"`
}

// AuthenticationResult is the token endpoint response.
type AuthenticationResult struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Username      string `json:"username"`
}

// Discovery is the OpenID provider metadata document.
type Discovery struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserInfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
}

// Endpoint paths, relative to the issuer.
const (
	PathAuthorize = "/oauth2/authorize"
	PathToken     = "/oauth2/token"
	PathRevoke    = "/oauth2/revoke"
	PathUserInfo  = "/oauth2/userInfo"
	PathJWKS      = "/.well-known/jwks.json"
	PathDiscovery = "/.well-known/openid-configuration"
)

// Discovery describes the pool's endpoints under its issuer.
func (s *Service) Discovery() Discovery {
	return Discovery{
		Issuer:                            s.issuer,
		AuthorizationEndpoint:             s.issuer + PathAuthorize,
		TokenEndpoint:                     s.issuer + PathToken,
		UserInfoEndpoint:                  s.issuer + PathUserInfo,
		JWKSURI:                           s.issuer + PathJWKS,
		RevocationEndpoint:                s.issuer + PathRevoke,
		ResponseTypesSupported:            []string{"code"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{keys.RS256},
		ScopesSupported:                   []string{"openid", "email", "profile"},
		GrantTypesSupported:               []string{"password", "refresh_token"},
		TokenEndpointAuthMethodsSupported: []string{"none", "client_secret_post"},
		ClaimsSupported:                   []string{"sub", "email", "email_verified", "cognito:username", "token_use"},
	}
}
