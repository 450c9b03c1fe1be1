package server

import (
	"encoding/json"
	"net/http"

	autherrors "github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

const (
	grantTypePassword     = "password"
	grantTypeRefreshToken = "refresh_token"
)

type signUpRequest struct {
	ClientID string `json:"clientId"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type confirmSignUpRequest struct {
	ClientID string `json:"clientId"`
	Username string `json:"username"`
	Code     string `json:"code"`
}

// SignUp registers a user in the local pool
func (s *Server) SignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}

		output, err := s.pool.SignUp(req.ClientID, req.Username, req.Password, req.Email)
		if err != nil {
			writePoolError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, output)
	}
}

// ConfirmSignUp confirms a registration with the emailed code
func (s *Server) ConfirmSignUp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmSignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse request body", http.StatusBadRequest)
			return
		}

		if err := s.pool.ConfirmSignUp(req.ClientID, req.Username, req.Code); err != nil {
			writePoolError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, s.pool.Discovery())
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600") // Cache for 1 hour
		writeJSON(w, http.StatusOK, s.pool.JWKS())
	}
}

// Token exchanges a password or refresh token for tokens
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}

		clientID := r.FormValue("client_id")
		if _, err := s.pool.AuthenticateClient(clientID, r.FormValue("client_secret")); err != nil {
			writePoolError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		switch r.FormValue("grant_type") {
		case grantTypePassword:
			result, err := s.pool.InitiateAuth(clientID, r.FormValue("username"), r.FormValue("password"), r.FormValue("scope"))
			if err != nil {
				writePoolError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)

		case grantTypeRefreshToken:
			result, err := s.pool.Refresh(clientID, r.FormValue("refresh_token"))
			if err != nil {
				writePoolError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)

		default:
			writePoolError(w, autherrors.ErrUnsupported)
		}
	}
}

// Revoke ends the session behind a refresh token
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "Failed to parse form data", http.StatusBadRequest)
			return
		}

		token := r.FormValue("token")
		if token == "" {
			writeJSONError(w, "invalid_request", "token parameter is required", http.StatusBadRequest)
			return
		}

		if err := s.pool.Revoke(r.FormValue("client_id"), token); err != nil {
			writePoolError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// UserInfo returns information about the holder of an access token
func (s *Server) UserInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, "invalid_token", "Missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		userInfo, err := s.pool.UserInfo(accessToken)
		if err != nil {
			writePoolError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, userInfo)
	}
}

// writePoolError maps a pool error onto its wire code and status.
func writePoolError(w http.ResponseWriter, err error) {
	code, sentinel := autherrors.Code(err)
	description := sentinel.Error()

	status := http.StatusBadRequest
	switch code {
	case "invalid_client", "invalid_token":
		status = http.StatusUnauthorized
	case "server_error":
		status = http.StatusInternalServerError
		log.Err(err).Msg("user pool request failed")
	case "invalid_password":
		description = err.Error()
	}
	writeJSONError(w, code, description, status)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
