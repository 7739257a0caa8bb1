package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxResponseBodyBytes = 1 << 20

// connectSuffix is the legacy deployment path segment. The same backend has
// historically been reachable both with and without it, so one configured
// base URL yields up to two candidate roots.
const connectSuffix = "/connect"

// endpointNotFoundMarkers classify an HTTP 400 body as "wrong endpoint
// path/version" rather than a real request failure. Matched
// case-insensitively; known fragile against provider wording changes.
var endpointNotFoundMarkers = []string{
	"endpoint is not recognized",
	"no endpoint",
	"unknown endpoint",
}

// CandidateRoots derives the ordered endpoint roots to try for one logical
// call: the configured base URL first, then the variant with the legacy
// suffix segment stripped. The result is de-duplicated and never empty for
// a non-empty input; the first entry is the primary root.
func CandidateRoots(baseURL string) []string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil
	}

	roots := []string{trimmed}
	if stripped := strings.TrimSuffix(trimmed, connectSuffix); stripped != trimmed && stripped != "" {
		roots = append(roots, stripped)
	}
	return roots
}

// StatusError is a non-2xx response with its full diagnostic context
// preserved: status code, status text, and raw body.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
	redactor   Redactor
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	detail := strings.TrimSpace(e.Body)
	if detail == "" {
		detail = strings.ToLower(http.StatusText(e.StatusCode))
	}
	return e.redactor.Redact(fmt.Sprintf("request failed with status %d %s: %s", e.StatusCode, e.Status, detail))
}

// RetryableNotFound reports whether the response indicates the endpoint
// path/version is wrong, as opposed to a real business or auth failure.
func (e *StatusError) RetryableNotFound() bool {
	if e == nil {
		return false
	}
	if e.StatusCode == http.StatusNotFound {
		return true
	}
	if e.StatusCode != http.StatusBadRequest {
		return false
	}
	body := strings.ToLower(e.Body)
	for _, marker := range endpointNotFoundMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

func IsRetryableNotFound(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.RetryableNotFound()
}

// Request is one logical call to be issued against the candidate roots.
// Path is relative (leading slash) and may carry a query string; headers are
// computed once by the caller and reused across roots, which is safe because
// signed credentials cover only the relative path.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

// Requester issues an authenticated call against an ordered list of
// candidate endpoint roots, advancing to the next root only on a
// retryable-not-found response. Any other non-2xx response is terminal.
type Requester struct {
	roots    []string
	client   *RetryClient
	redactor Redactor
	logger   *zap.Logger
}

func NewRequester(roots []string, client *RetryClient, redactor Redactor, logger *zap.Logger) *Requester {
	if logger == nil {
		logger = zap.NewNop()
	}

	unique := make([]string, 0, len(roots))
	seen := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		trimmed := strings.TrimRight(strings.TrimSpace(root), "/")
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}

	return &Requester{
		roots:    unique,
		client:   client,
		redactor: redactor,
		logger:   logger,
	}
}

// Do returns the raw response body of the first root that answers with a
// 2xx status. On exhaustion the last retryable-not-found error is returned
// so diagnostics point at a real response, not a synthetic one.
func (r *Requester) Do(ctx context.Context, request Request) ([]byte, error) {
	if r == nil || len(r.roots) == 0 {
		return nil, errors.New("no endpoint roots configured")
	}

	var lastRetryable error
	for _, root := range r.roots {
		body, err := r.doRoot(ctx, root, request)
		if err == nil {
			return body, nil
		}

		if IsRetryableNotFound(err) {
			r.logger.Debug("endpoint root rejected request, trying next",
				zap.String("root", root),
				zap.String("path", request.Path),
				zap.String("error", r.redactor.Redact(err.Error())),
			)
			lastRetryable = err
			continue
		}
		return nil, err
	}

	if lastRetryable != nil {
		return nil, lastRetryable
	}
	return nil, errors.New("no endpoint roots attempted")
}

func (r *Requester) doRoot(ctx context.Context, root string, request Request) ([]byte, error) {
	endpoint := root + request.Path

	var payload io.Reader
	if len(request.Body) > 0 {
		payload = bytes.NewReader(request.Body)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", request.Path, err)
	}
	for key, values := range request.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request for %s: %w", request.Path, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body for %s: %w", request.Path, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			redactor:   r.redactor,
		}
	}

	return body, nil
}
