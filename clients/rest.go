package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// HTTPError is returned for any non-2xx response from a backend microservice.
type HTTPError struct {
	Status int
	Body   string
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend request %s failed with status %d: %s", e.URL, e.Status, e.Body)
}

// ErrEmptyBody is returned by GetBlob when a download endpoint answers 200
// with a zero-byte body. An empty file must never be handed to the user.
var ErrEmptyBody = errors.New("download returned an empty body")

// TokenSource supplies the bearer token attached to outgoing requests.
// Token may return an empty string for unauthenticated calls; Invalidate
// drops any cached token so the next Token call obtains a fresh one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type staticTokenSource struct{ token string }

func (s *staticTokenSource) Token(ctx context.Context) (string, error) { return s.token, nil }
func (s *staticTokenSource) Invalidate()                               {}

// StaticTokenSource returns a TokenSource that always yields the given token.
func StaticTokenSource(token string) TokenSource {
	return &staticTokenSource{token: token}
}

type bearerTokenKey struct{}

// WithBearerToken returns a context carrying a per-request bearer token that
// overrides the client's TokenSource. Handlers use it to forward the caller's
// own token to the backend services.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func bearerTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerTokenKey{}).(string)
	return token, ok
}

// REST is a thin typed HTTP/JSON client for one backend microservice.
// It attaches bearer tokens, prefixes the base URL and retries exactly once
// on 401 after invalidating the token source.
type REST struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	component  string // For log prefixes, e.g. "ResultsClient"
}

// NewREST creates a client for the microservice rooted at baseURL.
// tokens may be nil for services that accept unauthenticated calls.
func NewREST(component, baseURL string, tokens TokenSource) *REST {
	return &REST{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		component:  component,
	}
}

// WithHTTPClient overrides the underlying *http.Client (used by tests and for
// the short-timeout wake ping).
func (r *REST) WithHTTPClient(hc *http.Client) *REST {
	r.httpClient = hc
	return r
}

// GetJSON issues a GET and decodes the JSON response into out.
func (r *REST) GetJSON(ctx context.Context, path string, out interface{}) error {
	return r.doJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
// out may be nil when the response body is irrelevant.
func (r *REST) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return r.doJSON(ctx, http.MethodPost, path, body, out)
}

// PutJSON issues a PUT with a JSON body.
func (r *REST) PutJSON(ctx context.Context, path string, body, out interface{}) error {
	return r.doJSON(ctx, http.MethodPut, path, body, out)
}

// PatchJSON issues a PATCH with a JSON body.
func (r *REST) PatchJSON(ctx context.Context, path string, body, out interface{}) error {
	return r.doJSON(ctx, http.MethodPatch, path, body, out)
}

// DeleteJSON issues a DELETE.
func (r *REST) DeleteJSON(ctx context.Context, path string, out interface{}) error {
	return r.doJSON(ctx, http.MethodDelete, path, nil, out)
}

func (r *REST) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body for %s %s: %w", method, path, err)
		}
	}

	resp, err := r.do(ctx, method, path, payload, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body for %s %s: %w", method, path, err)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("ERROR: [%s] Malformed JSON from %s %s: %v", r.component, method, path, err)
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// GetBlob fetches a raw file body (PDF/JSON/CSV export). A 200 with an empty
// body is treated as a failure and surfaced as ErrEmptyBody.
func (r *REST) GetBlob(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := r.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read download body for %s: %w", path, err)
	}
	if len(data) == 0 {
		log.Printf("ERROR: [%s] Download %s returned HTTP %d with an empty body.", r.component, path, resp.StatusCode)
		return nil, "", ErrEmptyBody
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// do executes the request, attaching the bearer token and retrying exactly
// once on 401 after refreshing the token source. The caller owns resp.Body.
func (r *REST) do(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, error) {
	resp, err := r.send(ctx, method, path, payload, contentType)
	if err != nil {
		return nil, err
	}

	// A 401 against a per-request forwarded token is the caller's problem;
	// refresh-and-retry only applies to tokens we minted from the source.
	_, forwarded := bearerTokenFrom(ctx)
	if resp.StatusCode == http.StatusUnauthorized && r.tokens != nil && !forwarded {
		// The cached token may have expired; refresh and retry once.
		resp.Body.Close()
		log.Printf("WARN: [%s] Got 401 for %s %s, refreshing token and retrying once.", r.component, method, path)
		r.tokens.Invalidate()
		resp, err = r.send(ctx, method, path, payload, contentType)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body)), URL: r.baseURL + path}
	}
	return resp, nil
}

func (r *REST) send(ctx context.Context, method, path string, payload []byte, contentType string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	token, ok := bearerTokenFrom(ctx)
	if !ok && r.tokens != nil {
		token, err = r.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtain bearer token for %s %s: %w", method, path, err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request %s %s: %w", method, r.baseURL+path, err)
	}
	return resp, nil
}
