package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"sundial-hq/meridian/pkg/upstream"
)

// maxRequestBody caps the inbound request body at 10MB.
const maxRequestBody = 10 << 20

// parseChatRequest reads and validates a chat completion request.
// Validation failures return an envelope describing the problem; they
// happen before any provider is contacted and never change provider
// state.
func parseChatRequest(r *http.Request) (*upstream.ChatRequest, *ErrorResponse) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err != nil {
		return nil, NewInvalidRequestError("failed to read request body", "", CodeInvalidJSON)
	}

	var req upstream.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, NewInvalidRequestError("request body is not valid JSON", "", CodeInvalidJSON)
	}

	if len(req.Messages) == 0 {
		return nil, NewInvalidRequestError("messages must not be empty", "messages", CodeMissingField)
	}

	return &req, nil
}
