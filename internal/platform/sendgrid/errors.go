package sendgrid

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/rest"
)

type apiError struct {
	Message string `json:"message"`
	Field   any    `json:"field,omitempty"`
}

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
	Errors     []apiError
	retryAfter time.Duration
}

func newHTTPError(resp *rest.Response) *HTTPError {
	e := &HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
	var parsed struct {
		Errors []apiError `json:"errors"`
	}
	if json.Unmarshal([]byte(resp.Body), &parsed) == nil {
		e.Errors = parsed.Errors
	}
	if secs, err := strconv.Atoi(header(resp.Headers, "Retry-After")); err == nil && secs > 0 {
		e.retryAfter = time.Duration(secs) * time.Second
	}
	return e
}

func (e *HTTPError) Error() string {
	if len(e.Errors) > 0 && strings.TrimSpace(e.Errors[0].Message) != "" {
		return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Errors[0].Message)
	}
	body := strings.TrimSpace(e.Body)
	switch {
	case body == "":
		body = "<empty body>"
	case len(body) > 4000:
		body = body[:4000] + "..."
	}
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, body)
}

func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func header(h map[string][]string, key string) string {
	if vals := http.Header(h).Values(key); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	for k, vals := range h {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
	}
	return ""
}
