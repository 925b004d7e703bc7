package adapter

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-resty/resty/v2"
)

// jmapLimitError is the problem type of a request-level limit violation.
const jmapLimitError = "urn:ietf:params:jmap:error:limit"

func mapHTTPError(resp *resty.Response) error {
	return mapHTTPStatus(resp.StatusCode(), string(resp.Body()))
}

// mapRawHTTPError maps the status of a response read with
// SetDoNotParseResponse and closes its body when the status is not 2xx.
func mapRawHTTPError(resp *resty.Response) error {
	if isSuccess(resp.StatusCode()) {
		return nil
	}

	var body []byte
	if raw := resp.RawBody(); raw != nil {
		body, _ = io.ReadAll(io.LimitReader(raw, 4096))
		raw.Close()
	}
	return mapHTTPStatus(resp.StatusCode(), string(body))
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func mapHTTPStatus(code int, body string) error {
	if isSuccess(code) {
		return nil
	}

	body = strings.TrimSpace(body)

	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", ErrRequestTooLarge, body)
	case http.StatusBadRequest:
		if strings.Contains(body, jmapLimitError) {
			return fmt.Errorf("%w: %s", ErrRequestTooLarge, body)
		}
		return fmt.Errorf("%w: http %d: %s", ErrServer, code, body)
	default:
		if body == "" {
			body = http.StatusText(code)
		}
		return fmt.Errorf("%w: http %d: %s", ErrServer, code, body)
	}
}

func mapMethodError(method string, e models.MethodError) error {
	var sentinel error
	switch e.Type {
	case "requestTooLarge":
		sentinel = ErrRequestTooLarge
	case "accountNotFound":
		sentinel = ErrNotFound
	case "forbidden":
		sentinel = ErrUnauthorized
	default:
		sentinel = ErrServer
	}

	if e.Description != "" {
		return fmt.Errorf("%w: %s: %s: %s", sentinel, method, e.Type, e.Description)
	}
	return fmt.Errorf("%w: %s: %s", sentinel, method, e.Type)
}
