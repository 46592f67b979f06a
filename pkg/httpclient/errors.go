package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

// upstreamError covers the two error shapes the commerce API answers with:
// {"error":{"code":..,"message":..}} and {"message":..}.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", serviceName, resp.StatusCode, err)
	}

	message := strings.TrimSpace(string(body))
	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != nil && parsed.Error.Message != "":
			message = parsed.Error.Message
		case parsed.Message != "":
			message = parsed.Message
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return mapStatus(resp.StatusCode, message, serviceName)
}

func mapStatus(status int, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)
	cause := fmt.Errorf("%s returned status %d", serviceName, status)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName+" resource", message)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(serviceName, cause)
	default:
		return apperrors.Upstream(qualified, cause)
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
