package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nikolayk812/shopcart/internal/domain"
)

// APIError is a response the service answered but did not accept.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: backend error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: backend error (%d): %s", e.Status, http.StatusText(e.Status))
}

// UserMessage is the server-provided text, suitable for the shopper.
func (e *APIError) UserMessage() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var payload struct {
		Message string `json:"message"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err == nil {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(payload.Message)}
		}
	}
	return &APIError{Status: resp.StatusCode}
}
