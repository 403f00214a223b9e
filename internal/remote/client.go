// Package remote is the HTTP client for the hosted paydown document store.
// It is never the primary store; every operation here is driven by the sync
// coordinator after the durable local write has already succeeded.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.paydown.dev/v1"

// requestTimeout bounds every remote call so an offline device fails fast
// instead of hanging a sync pass.
const requestTimeout = 10 * time.Second

// Client is a minimal paydown API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client using the default API base URL.
func New(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// NewWithBaseURL creates a client with a custom base URL.
// Intended for tests and local stubs.
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

// Ping calls GET /util/ping and returns nil only when status is 200.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/util/ping", nil, nil, nil)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	out any,
) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError builds a classified Error from a non-2xx response. The server
// error code wins when present; otherwise the HTTP status decides.
func decodeError(resp *http.Response) *Error {
	remoteErr := &Error{
		Code:       codeForStatus(resp.StatusCode),
		HTTPStatus: resp.StatusCode,
	}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		if body.Error.Code != "" {
			remoteErr.Code = Code(body.Error.Code)
		}
		remoteErr.Message = body.Error.Message
	}
	if remoteErr.Message == "" {
		remoteErr.Message = http.StatusText(resp.StatusCode)
	}
	return remoteErr
}
