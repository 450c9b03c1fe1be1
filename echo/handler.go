package echo

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Handler serves Process over HTTP.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			log.Err(err).Msg("failed to read echo request body")
			body = nil
		}

		result := Process(r.Method, body)
		if result.StatusCode != http.StatusOK {
			log.Warn().Int("status", result.StatusCode).Msg("echo request rejected")
		}

		for k, v := range Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(result.StatusCode)
		_ = json.NewEncoder(w).Encode(result.Body)
	}
}
