// Package echo is the NebulaBridge backend function: it greets GET callers
// and echoes the text of POSTed JSON bodies.
package echo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	greeting      = "Hello from NebulaBridge Lambda function! Send a POST request with text to process it."
	receivedFmt   = "NebulaBridge received your message: %s"
	processErrFmt = "Error processing request: %s"
)

var errNotObject = errors.New("request body must be a JSON object")

// Request is the POST body a client sends. The server accepts any JSON value
// under "text".
type Request struct {
	Text string `json:"text"`
}

// Response is every reply body except the preflight one.
type Response struct {
	Message string `json:"message"`
}

// Headers are set on every echo response.
var Headers = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type",
	"Access-Control-Allow-Methods": "OPTIONS,POST,GET",
	"Content-Type":                 "application/json",
}

// Result is a computed reply, independent of any HTTP machinery.
type Result struct {
	StatusCode int
	Body       any
}

// Process computes the reply to a request. OPTIONS gets an empty object, a
// POST with a body gets its text echoed and anything else gets the greeting.
func Process(method string, body []byte) Result {
	if method == http.MethodOptions {
		return Result{StatusCode: http.StatusOK, Body: struct{}{}}
	}

	if method == http.MethodPost && len(strings.TrimSpace(string(body))) > 0 {
		text, err := decodeText(body)
		if err != nil {
			return Result{
				StatusCode: http.StatusBadRequest,
				Body:       Response{Message: fmt.Sprintf(processErrFmt, err)},
			}
		}
		return Result{
			StatusCode: http.StatusOK,
			Body:       Response{Message: fmt.Sprintf(receivedFmt, text)},
		}
	}

	return Result{StatusCode: http.StatusOK, Body: Response{Message: greeting}}
}

// decodeText returns the "text" member of a JSON object body, formatted for
// display. Non-string values keep their JSON form; a missing or null member
// is "".
func decodeText(body []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", err
	}
	if fields == nil {
		return "", errNotObject
	}
	raw, ok := fields["text"]
	if !ok || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	return string(bytes.TrimSpace(raw)), nil
}
