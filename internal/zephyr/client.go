package zephyr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/testgenie/testgenie/internal/contracts"
	httpclient "github.com/testgenie/testgenie/internal/http"
)

// apiPrefix is the stable public API mount point, shared by every known
// deployment of the backend.
const apiPrefix = "/public/rest/api/1.0"

type ClientOptions struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	AccountID string
	ProjectID string

	HTTPDoer     httpclient.Doer
	RetryOptions httpclient.Options
	Logger       *zap.Logger
}

// Client talks to the test execution backend. Every request carries a
// freshly minted signed token bound to its method, path, and query.
type Client struct {
	requester *httpclient.Requester
	signer    *Signer
	accessKey string
	accountID string
	projectID string
	redactor  httpclient.Redactor
	logger    *zap.Logger
}

func NewClient(options ClientOptions) (*Client, error) {
	roots := httpclient.CandidateRoots(options.BaseURL)
	if len(roots) == 0 {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid zephyr client options: base URL must be set",
		}
	}

	signer, err := NewSigner(options.AccessKey, options.SecretKey, options.AccountID)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	redactor := httpclient.NewRedactor(options.SecretKey)
	retryClient := httpclient.NewRetryClient(options.HTTPDoer, options.RetryOptions).WithLogger(logger)

	return &Client{
		requester: httpclient.NewRequester(roots, retryClient, redactor, logger),
		signer:    signer,
		accessKey: strings.TrimSpace(options.AccessKey),
		accountID: strings.TrimSpace(options.AccountID),
		projectID: strings.TrimSpace(options.ProjectID),
		redactor:  redactor,
		logger:    logger,
	}, nil
}

// TestStatusResult carries the normalized status plus the request paths
// that were attempted and the not-found errors collected along the way,
// for diagnostics when the answer is UNKNOWN.
type TestStatusResult struct {
	Status    Status
	Attempted []string
	Errors    []string
}

// GetTestStatus resolves the execution status for one issue. The backend
// exposes executions under several path and parameter spellings depending
// on deployment age, so candidates are tried in order until one yields a
// conclusive status. An inconclusive sweep returns UNKNOWN, not an error;
// auth and transport failures still propagate.
func (c *Client) GetTestStatus(ctx context.Context, issueID string, issueKey string) (TestStatusResult, error) {
	if c == nil {
		return TestStatusResult{}, &Error{Code: ErrorCodeInvalidInput, Message: "zephyr client is nil"}
	}

	paths := c.statusCandidatePaths(issueID, issueKey)
	if len(paths) == 0 {
		return TestStatusResult{}, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid test status request: issue ID or issue key must be set",
		}
	}

	result := TestStatusResult{Status: StatusUnknown}
	for _, candidatePath := range paths {
		body, err := c.do(ctx, http.MethodGet, candidatePath)
		if err != nil {
			if IsErrorCode(err, ErrorCodeEndpointNotFound) {
				result.Attempted = append(result.Attempted, candidatePath)
				result.Errors = append(result.Errors, c.redactor.Redact(err.Error()))
				continue
			}
			return TestStatusResult{}, err
		}

		status := NormalizeExecutionStatus(body)
		if status != StatusUnknown {
			result.Status = status
			result.Attempted = append(result.Attempted, candidatePath)
			return result, nil
		}
		result.Attempted = append(result.Attempted, candidatePath)
	}

	c.logger.Debug("no execution endpoint returned a conclusive status",
		zap.String("issueKey", issueKey),
		zap.Strings("attempted", result.Attempted),
		zap.Strings("errors", result.Errors),
	)
	return result, nil
}

// GetTestSteps fetches the ordered manual test steps for one issue.
func (c *Client) GetTestSteps(ctx context.Context, issueID string) ([]TestStep, error) {
	if c == nil {
		return nil, &Error{Code: ErrorCodeInvalidInput, Message: "zephyr client is nil"}
	}

	trimmedID := strings.TrimSpace(issueID)
	if trimmedID == "" {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid test steps request: issue ID must be set",
		}
	}

	query := url.Values{}
	if c.projectID != "" {
		query.Set("projectId", c.projectID)
	}
	query.Set("offsetOpt", "0")

	requestPath := apiPrefix + "/teststep/" + url.PathEscape(trimmedID) + "?" + query.Encode()
	body, err := c.do(ctx, http.MethodGet, requestPath)
	if err != nil {
		return nil, err
	}

	steps, parseErr := parseTestSteps(body)
	if parseErr != nil {
		return nil, &Error{
			Code:       ErrorCodeResponseDecode,
			ReasonCode: contracts.ReasonCodeTransportError,
			Message:    "failed to decode test steps response",
			Err:        parseErr,
			redactor:   c.redactor,
		}
	}
	return steps, nil
}

// ExecutionStatus is one entry of the backend's status catalog.
type ExecutionStatus struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// ListExecutionStatuses fetches the backend's execution status catalog.
func (c *Client) ListExecutionStatuses(ctx context.Context) ([]ExecutionStatus, error) {
	if c == nil {
		return nil, &Error{Code: ErrorCodeInvalidInput, Message: "zephyr client is nil"}
	}

	body, err := c.do(ctx, http.MethodGet, apiPrefix+"/execution/statuses")
	if err != nil {
		return nil, err
	}

	var statuses []ExecutionStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, &Error{
			Code:       ErrorCodeResponseDecode,
			ReasonCode: contracts.ReasonCodeTransportError,
			Message:    "failed to decode execution statuses response",
			Err:        err,
			redactor:   c.redactor,
		}
	}
	return statuses, nil
}

func (c *Client) statusCandidatePaths(issueID string, issueKey string) []string {
	identities := make([]url.Values, 0, 2)
	if trimmed := strings.TrimSpace(issueID); trimmed != "" {
		identity := url.Values{}
		identity.Set("issueId", trimmed)
		identities = append(identities, identity)
	}
	if trimmed := strings.TrimSpace(issueKey); trimmed != "" {
		identity := url.Values{}
		identity.Set("issueKey", trimmed)
		identities = append(identities, identity)
	}

	paths := make([]string, 0, len(identities)*3)
	for _, resource := range []string{"/executions", "/execution", "/execution/search"} {
		for _, identity := range identities {
			query := url.Values{}
			for key, values := range identity {
				for _, value := range values {
					query.Add(key, value)
				}
			}
			if c.projectID != "" {
				query.Set("projectId", c.projectID)
			}
			query.Set("offset", "0")
			query.Set("size", strconv.Itoa(contracts.DefaultExecutionPageSize))
			paths = append(paths, apiPrefix+resource+"?"+query.Encode())
		}
	}
	return paths
}

// do signs the request and runs it through the multi-root requester,
// mapping transport and status failures onto the client's error taxonomy.
func (c *Client) do(ctx context.Context, method string, requestPath string) ([]byte, error) {
	signed, err := c.signer.Sign(method, requestPath)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Authorization", "JWT "+signed.Token)
	header.Set("zapiAccessKey", c.accessKey)
	if c.accountID != "" {
		header.Set("zapiAccountId", c.accountID)
	}

	body, err := c.requester.Do(ctx, httpclient.Request{
		Method: method,
		Path:   requestPath,
		Header: header,
	})
	if err != nil {
		return nil, c.mapRequestError(requestPath, err)
	}
	return body, nil
}

func (c *Client) mapRequestError(requestPath string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return &Error{
				Code:       ErrorCodeAuthFailed,
				ReasonCode: contracts.ReasonCodeAuthFailed,
				StatusCode: statusErr.StatusCode,
				Message:    "zephyr authentication failed for " + requestPath,
				Err:        err,
				redactor:   c.redactor,
			}
		case statusErr.RetryableNotFound():
			return &Error{
				Code:       ErrorCodeEndpointNotFound,
				ReasonCode: contracts.ReasonCodeEndpointNotFound,
				StatusCode: statusErr.StatusCode,
				Message:    "no endpoint root recognized " + requestPath,
				Err:        err,
				redactor:   c.redactor,
			}
		default:
			return &Error{
				Code:       ErrorCodeUnexpectedStatus,
				ReasonCode: contracts.ReasonCodeTransportError,
				StatusCode: statusErr.StatusCode,
				Message:    "zephyr request failed for " + requestPath,
				Err:        err,
				redactor:   c.redactor,
			}
		}
	}

	return &Error{
		Code:       ErrorCodeTransport,
		ReasonCode: contracts.ReasonCodeTransportError,
		Message:    "failed to execute zephyr request for " + requestPath,
		Err:        err,
		redactor:   c.redactor,
	}
}
