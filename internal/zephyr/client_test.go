package zephyr

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	httpclient "github.com/testgenie/testgenie/internal/http"
)

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func responseWithStatus(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func mustNewClient(t *testing.T, doer httpclient.Doer) *Client {
	t.Helper()

	client, err := NewClient(ClientOptions{
		BaseURL:   "https://tests.example.test/connect",
		AccessKey: "access-key",
		SecretKey: "secret-key",
		AccountID: "account-1",
		ProjectID: "42",
		HTTPDoer:  doer,
		RetryOptions: httpclient.Options{
			MaxAttempts: 1,
		},
	})
	if err != nil {
		t.Fatalf("expected client construction success, got %v", err)
	}
	return client
}

func TestClientSendsSignedHeaders(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = req
		return responseWithStatus(http.StatusOK, `[]`), nil
	}))

	if _, err := client.ListExecutionStatuses(context.Background()); err != nil {
		t.Fatalf("expected request success, got %v", err)
	}

	if seen == nil {
		t.Fatal("expected a request to be issued")
	}
	if auth := seen.Header.Get("Authorization"); !strings.HasPrefix(auth, "JWT ") {
		t.Fatalf("expected JWT authorization header, got %q", auth)
	}
	if seen.Header.Get("zapiAccessKey") != "access-key" {
		t.Fatalf("expected access key header, got %q", seen.Header.Get("zapiAccessKey"))
	}
	if seen.Header.Get("zapiAccountId") != "account-1" {
		t.Fatalf("expected account header, got %q", seen.Header.Get("zapiAccountId"))
	}
}

func TestGetTestStatusFallsBackAcrossEndpointSpellings(t *testing.T) {
	t.Parallel()

	var attempted []string
	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		attempted = append(attempted, req.URL.Path)
		if !strings.Contains(req.URL.Path, "/execution/search") {
			return responseWithStatus(http.StatusNotFound, "not here"), nil
		}
		return responseWithStatus(http.StatusOK, `{"executions":[{"status":{"name":"FAIL"}}]}`), nil
	}))

	result, err := client.GetTestStatus(context.Background(), "10001", "PROJ-7")
	if err != nil {
		t.Fatalf("expected status resolution, got %v", err)
	}
	if result.Status != StatusFail {
		t.Fatalf("expected FAIL, got %s", result.Status)
	}
	if len(result.Attempted) == 0 {
		t.Fatal("expected attempted paths to be recorded")
	}
	if len(attempted) == 0 {
		t.Fatal("expected requests to be issued")
	}
}

func TestGetTestStatusReturnsUnknownWhenNothingConclusive(t *testing.T) {
	t.Parallel()

	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		return responseWithStatus(http.StatusNotFound, "nope"), nil
	}))

	result, err := client.GetTestStatus(context.Background(), "10001", "PROJ-7")
	if err != nil {
		t.Fatalf("expected inconclusive sweep to be non-fatal, got %v", err)
	}
	if result.Status != StatusUnknown {
		t.Fatalf("expected UNKNOWN, got %s", result.Status)
	}
	if len(result.Attempted) == 0 {
		t.Fatal("expected attempted paths for diagnostics")
	}
	if len(result.Errors) != len(result.Attempted) {
		t.Fatalf("expected one recorded error per missing endpoint, got %d errors for %d paths", len(result.Errors), len(result.Attempted))
	}
	for _, message := range result.Errors {
		if !strings.Contains(message, "404") {
			t.Fatalf("expected not-found detail in recorded error, got %q", message)
		}
	}
}

func TestGetTestStatusPropagatesAuthFailure(t *testing.T) {
	t.Parallel()

	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		return responseWithStatus(http.StatusUnauthorized, "bad credentials"), nil
	}))

	_, err := client.GetTestStatus(context.Background(), "10001", "PROJ-7")
	if !IsErrorCode(err, ErrorCodeAuthFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestGetTestStatusRequiresAnIdentity(t *testing.T) {
	t.Parallel()

	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}))

	_, err := client.GetTestStatus(context.Background(), "  ", "")
	if !IsErrorCode(err, ErrorCodeInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetTestStepsParsesAndOrders(t *testing.T) {
	t.Parallel()

	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/teststep/10001") {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("projectId"); got != "42" {
			t.Fatalf("expected projectId=42, got %q", got)
		}
		body := `{"testSteps":[{"id":2,"step":"Click login","orderId":2},{"id":1,"step":"Open app","orderId":1},{"id":3,"step":"Observe crash","orderId":3}]}`
		return responseWithStatus(http.StatusOK, body), nil
	}))

	steps, err := client.GetTestSteps(context.Background(), "10001")
	if err != nil {
		t.Fatalf("expected steps, got %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Step != "Open app" || steps[1].Step != "Click login" || steps[2].Step != "Observe crash" {
		t.Fatalf("unexpected step order: %q, %q, %q", steps[0].Step, steps[1].Step, steps[2].Step)
	}
}

func TestGetTestStepsSecondRootAfterRetryableNotFound(t *testing.T) {
	t.Parallel()

	var hosts []string
	client := mustNewClient(t, doerFunc(func(req *http.Request) (*http.Response, error) {
		hosts = append(hosts, req.URL.String())
		if strings.Contains(req.URL.Path, "/connect/") {
			return responseWithStatus(http.StatusBadRequest, "This endpoint is not recognized"), nil
		}
		return responseWithStatus(http.StatusOK, `{"testSteps":[{"id":1,"step":"Only step","orderId":1}]}`), nil
	}))

	steps, err := client.GetTestSteps(context.Background(), "10001")
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %d", len(steps))
	}
	if len(hosts) != 2 {
		t.Fatalf("expected both roots attempted, got %v", hosts)
	}
	if !strings.Contains(hosts[0], "/connect/") || strings.Contains(hosts[1], "/connect/") {
		t.Fatalf("expected legacy root first then stripped root, got %v", hosts)
	}
}
