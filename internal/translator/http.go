package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// request describes one provider HTTP call
type request struct {
	method  string
	url     string
	headers map[string]string
	json    any        // encoded as the JSON body when set
	form    url.Values // encoded as a form body when set
}

// do sends req and returns the status code and raw body. Transport
// failures come back as *Error with a zero status code.
func do(ctx context.Context, client *http.Client, provider string, req request) (int, []byte, error) {
	var body io.Reader
	contentType := ""

	switch {
	case req.json != nil:
		data, err := json.Marshal(req.json)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	method := req.method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, &Error{Provider: provider, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Provider: provider, StatusCode: resp.StatusCode, Message: err.Error()}
	}
	return resp.StatusCode, respBody, nil
}

// responseError builds an *Error from a failed response using the first
// gjson path that yields a message, falling back to the raw body
func responseError(provider string, status int, body []byte, paths ...string) error {
	message := ""
	if gjson.ValidBytes(body) {
		for _, path := range paths {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				message = v.String()
				break
			}
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Provider: provider, StatusCode: status, Message: message}
}

// field extracts a required string from a successful JSON body
func field(provider string, body []byte, path string) (string, error) {
	v := gjson.GetBytes(body, path)
	if !v.Exists() {
		return "", &Error{Provider: provider, StatusCode: http.StatusOK, Message: "unexpected response: missing " + path}
	}
	return v.String(), nil
}
