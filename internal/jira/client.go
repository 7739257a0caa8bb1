package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/testgenie/testgenie/internal/contracts"
	httpclient "github.com/testgenie/testgenie/internal/http"
)

const maxResponseBodyBytes = 1 << 20

type ClientOptions struct {
	BaseURL  string
	Email    string
	APIToken string

	// SprintFieldID pins the custom field that carries sprint data. When
	// empty the client discovers it from the field catalog on first use.
	SprintFieldID string

	HTTPDoer     httpclient.Doer
	RetryOptions httpclient.Options
	Logger       *zap.Logger
}

// Client talks to the issue tracker REST API. It holds no mutable issue
// state; the only cache is the resolved sprint field ID.
type Client struct {
	baseURL     string
	authHeader  string
	client      *httpclient.RetryClient
	redactor    httpclient.Redactor
	logger      *zap.Logger
	sprintField *sprintFieldResolver
}

func NewClient(options ClientOptions) (*Client, error) {
	baseURL, err := normalizeBaseURL(options.BaseURL)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(options.Email)
	if email == "" {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid jira client options: email must be set",
		}
	}

	token := strings.TrimSpace(options.APIToken)
	if token == "" {
		return nil, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid jira client options: api token must be set",
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authSecret := email + ":" + token
	authHeader := "Basic " + base64.StdEncoding.EncodeToString([]byte(authSecret))
	redactor := httpclient.NewRedactor(token, authSecret, authHeader)

	client := &Client{
		baseURL:    baseURL,
		authHeader: authHeader,
		client:     httpclient.NewRetryClient(options.HTTPDoer, options.RetryOptions).WithLogger(logger),
		redactor:   redactor,
		logger:     logger,
	}
	client.sprintField = newSprintFieldResolver(client.listFields)
	if fieldID := strings.TrimSpace(options.SprintFieldID); fieldID != "" {
		client.sprintField.seed(fieldID)
	}

	return client, nil
}

// GetIssue fetches one issue with the fields the downstream flows need,
// including the active sprint when the sprint field can be resolved. A
// failed sprint field lookup degrades to an issue without sprint data.
func (c *Client) GetIssue(ctx context.Context, issueKey string) (Issue, error) {
	if c == nil {
		return Issue{}, &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	canonicalKey, err := validateIssueKey(issueKey)
	if err != nil {
		return Issue{}, err
	}

	requestedFields := []string{"summary", "description", "issuetype", "project", "components", "assignee", "parent"}
	sprintFieldID, sprintErr := c.sprintField.Resolve(ctx)
	if sprintErr != nil {
		c.logger.Warn("sprint field lookup failed, issue will have no sprint data",
			zap.String("issueKey", canonicalKey),
			zap.String("error", c.redactor.Redact(sprintErr.Error())),
		)
	} else if sprintFieldID != "" {
		requestedFields = append(requestedFields, sprintFieldID)
	}

	query := url.Values{}
	query.Set("fields", strings.Join(requestedFields, ","))

	resourcePath := "/rest/api/3/issue/" + url.PathEscape(canonicalKey)
	var response issueAPIResponse
	if err := c.doJSON(ctx, http.MethodGet, resourcePath, query, nil, []int{http.StatusOK}, &response); err != nil {
		return Issue{}, err
	}

	return mapAPIIssue(response, sprintFieldID), nil
}

// GetLinkedIssuesByType hydrates every issue linked to issueKey through a
// link type matching linkTypeName (case-insensitive, inward or outward).
// Linked issues are fetched concurrently; a failure on one link is recorded
// as skipped and never fails the batch.
func (c *Client) GetLinkedIssuesByType(ctx context.Context, issueKey string, linkTypeName string) (LinkedIssuesResult, error) {
	if c == nil {
		return LinkedIssuesResult{}, &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	canonicalKey, err := validateIssueKey(issueKey)
	if err != nil {
		return LinkedIssuesResult{}, err
	}

	wantedType := strings.TrimSpace(linkTypeName)
	if wantedType == "" {
		return LinkedIssuesResult{}, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid linked issues request: link type name must be set",
		}
	}

	query := url.Values{}
	query.Set("fields", "issuelinks")

	resourcePath := "/rest/api/3/issue/" + url.PathEscape(canonicalKey)
	var response issueLinksAPIResponse
	if err := c.doJSON(ctx, http.MethodGet, resourcePath, query, nil, []int{http.StatusOK}, &response); err != nil {
		return LinkedIssuesResult{}, err
	}

	linkedKeys := collectLinkedKeys(response.Fields.IssueLinks, wantedType)
	if len(linkedKeys) == 0 {
		return LinkedIssuesResult{}, nil
	}

	var mu sync.Mutex
	result := LinkedIssuesResult{}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(contracts.DefaultLinkedIssueConcurrency)
	for _, linkedKey := range linkedKeys {
		linkedKey := linkedKey
		group.Go(func() error {
			issue, fetchErr := c.GetIssue(groupCtx, linkedKey)

			mu.Lock()
			defer mu.Unlock()
			if fetchErr != nil {
				result.Skipped = append(result.Skipped, SkippedLink{Key: linkedKey, Err: fetchErr})
				return nil
			}
			result.Issues = append(result.Issues, issue)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return LinkedIssuesResult{}, err
	}

	sort.Slice(result.Issues, func(i, j int) bool { return result.Issues[i].Key < result.Issues[j].Key })
	sort.Slice(result.Skipped, func(i, j int) bool { return result.Skipped[i].Key < result.Skipped[j].Key })
	return result, nil
}

// CreateBug creates a Bug issue. The plain-text description is converted to
// a rich-text document body before submission.
func (c *Client) CreateBug(ctx context.Context, input CreateBugInput) (CreatedIssue, error) {
	if c == nil {
		return CreatedIssue{}, &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	projectKey := strings.TrimSpace(input.ProjectKey)
	if projectKey == "" {
		return CreatedIssue{}, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid create bug request: project key must be set",
		}
	}

	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		return CreatedIssue{}, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid create bug request: summary must be set",
		}
	}

	fields := map[string]any{
		"project":     map[string]string{"key": projectKey},
		"issuetype":   map[string]string{"name": "Bug"},
		"summary":     summary,
		"description": TextToADF(input.Description),
	}
	if components := normalizeStringSlice(input.Components); len(components) > 0 {
		refs := make([]map[string]string, 0, len(components))
		for _, component := range components {
			refs = append(refs, map[string]string{"name": component})
		}
		fields["components"] = refs
	}
	if labels := normalizeStringSlice(input.Labels); labels != nil {
		fields["labels"] = labels
	}
	if priority := strings.TrimSpace(input.PriorityName); priority != "" {
		fields["priority"] = map[string]string{"name": priority}
	}
	if assignee := strings.TrimSpace(input.AssigneeAccountID); assignee != "" {
		fields["assignee"] = map[string]string{"accountId": assignee}
	}

	payload := map[string]any{"fields": fields}
	var response createdIssueAPIResponse
	if err := c.doJSON(ctx, http.MethodPost, "/rest/api/3/issue", nil, payload, []int{http.StatusCreated}, &response); err != nil {
		return CreatedIssue{}, err
	}

	return CreatedIssue{ID: response.ID, Key: response.Key, Self: response.Self}, nil
}

// LinkIssues creates a directed link of the named type from inwardKey to
// outwardKey.
func (c *Client) LinkIssues(ctx context.Context, linkTypeName string, inwardKey string, outwardKey string) error {
	if c == nil {
		return &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	linkType := strings.TrimSpace(linkTypeName)
	if linkType == "" {
		return &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid link request: link type name must be set",
		}
	}

	canonicalInward, err := validateIssueKey(inwardKey)
	if err != nil {
		return err
	}
	canonicalOutward, err := validateIssueKey(outwardKey)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"type":         map[string]string{"name": linkType},
		"inwardIssue":  map[string]string{"key": canonicalInward},
		"outwardIssue": map[string]string{"key": canonicalOutward},
	}
	return c.doJSON(ctx, http.MethodPost, "/rest/api/3/issueLink", nil, payload, []int{http.StatusCreated, http.StatusNoContent}, nil)
}

// SearchIssues runs one page of a JQL search using token-based pagination.
func (c *Client) SearchIssues(ctx context.Context, request SearchRequest) (SearchResult, error) {
	if c == nil {
		return SearchResult{}, &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	jql := strings.TrimSpace(request.JQL)
	if jql == "" {
		return SearchResult{}, &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid search request: jql must be set",
		}
	}

	payload := map[string]any{"jql": jql}
	if request.MaxResults > 0 {
		payload["maxResults"] = request.MaxResults
	}
	if fields := normalizeStringSlice(request.Fields); len(fields) > 0 {
		payload["fields"] = fields
	}
	if token := strings.TrimSpace(request.NextPageToken); token != "" {
		payload["nextPageToken"] = token
	}

	var response searchAPIResponse
	if err := c.doJSON(ctx, http.MethodPost, "/rest/api/3/search/jql", nil, payload, []int{http.StatusOK}, &response); err != nil {
		return SearchResult{}, err
	}

	issues := make([]Issue, 0, len(response.Issues))
	for _, item := range response.Issues {
		issues = append(issues, mapAPIIssue(item, ""))
	}

	return SearchResult{
		Issues:        issues,
		IsLast:        response.IsLast,
		NextPageToken: response.NextPageToken,
	}, nil
}

// HealthCheck verifies that the configured credentials can reach the API.
func (c *Client) HealthCheck(ctx context.Context) (AccountRef, error) {
	if c == nil {
		return AccountRef{}, &Error{Code: ErrorCodeInvalidInput, Message: "jira client is nil"}
	}

	var response accountAPIRef
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/myself", nil, nil, []int{http.StatusOK}, &response); err != nil {
		return AccountRef{}, err
	}

	return AccountRef{
		AccountID:   strings.TrimSpace(response.AccountID),
		DisplayName: strings.TrimSpace(response.DisplayName),
		Email:       strings.TrimSpace(response.Email),
	}, nil
}

func (c *Client) listFields(ctx context.Context) ([]Field, error) {
	var response []fieldAPIData
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/field", nil, nil, []int{http.StatusOK}, &response); err != nil {
		return nil, err
	}

	fields := make([]Field, 0, len(response))
	for _, item := range response {
		fields = append(fields, Field{
			ID:     strings.TrimSpace(item.ID),
			Name:   strings.TrimSpace(item.Name),
			Custom: item.Custom,
			Schema: strings.TrimSpace(item.Schema.Custom),
		})
	}
	return fields, nil
}

func (c *Client) doJSON(ctx context.Context, method string, resourcePath string, query url.Values, payload any, expectedStatusCodes []int, out any) error {
	if len(expectedStatusCodes) == 0 {
		expectedStatusCodes = []int{http.StatusOK}
	}

	var requestBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &Error{
				Code:       ErrorCodeRequestEncode,
				ReasonCode: contracts.ReasonCodeValidationFailed,
				Message:    "failed to encode jira request payload",
				Err:        err,
				redactor:   c.redactor,
			}
		}
		requestBody = bytes.NewReader(encoded)
	}

	endpoint, err := c.endpointFor(resourcePath, query)
	if err != nil {
		return &Error{
			Code:       ErrorCodeRequestBuild,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "failed to build jira request URL",
			Err:        err,
			redactor:   c.redactor,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, requestBody)
	if err != nil {
		return &Error{
			Code:       ErrorCodeRequestBuild,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "failed to build jira request",
			Err:        err,
			redactor:   c.redactor,
		}
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{
			Code:       ErrorCodeTransport,
			ReasonCode: contracts.ReasonCodeTransportError,
			Message:    "failed to execute jira request",
			Err:        err,
			redactor:   c.redactor,
		}
	}
	defer resp.Body.Close()

	responseBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return &Error{
			Code:       ErrorCodeTransport,
			ReasonCode: contracts.ReasonCodeTransportError,
			StatusCode: resp.StatusCode,
			Message:    "failed to read jira response body",
			Err:        readErr,
			redactor:   c.redactor,
		}
	}

	if !containsStatus(expectedStatusCodes, resp.StatusCode) {
		return c.statusError(resp.StatusCode, responseBody)
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(responseBody, out); err != nil {
		return &Error{
			Code:       ErrorCodeResponseDecode,
			ReasonCode: contracts.ReasonCodeTransportError,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode jira response body",
			Err:        err,
			redactor:   c.redactor,
		}
	}

	return nil
}

func (c *Client) statusError(statusCode int, body []byte) error {
	detail := extractAPIErrorMessage(body)
	if detail == "" {
		detail = strings.ToLower(http.StatusText(statusCode))
	}

	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return &Error{
			Code:       ErrorCodeAuthFailed,
			ReasonCode: contracts.ReasonCodeAuthFailed,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("jira authentication failed with status %d: %s", statusCode, detail),
			redactor:   c.redactor,
		}
	}

	return &Error{
		Code:       ErrorCodeUnexpectedStatus,
		ReasonCode: contracts.ReasonCodeTransportError,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("jira request failed with status %d: %s", statusCode, detail),
		redactor:   c.redactor,
	}
}

func (c *Client) endpointFor(resourcePath string, query url.Values) (string, error) {
	trimmedPath := "/" + strings.TrimLeft(strings.TrimSpace(resourcePath), "/")
	parsedBase, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}

	parsedBase.Path = strings.TrimRight(parsedBase.Path, "/") + trimmedPath
	if len(query) > 0 {
		parsedBase.RawQuery = query.Encode()
	}
	return parsedBase.String(), nil
}

func normalizeBaseURL(baseURL string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid jira client options: base URL must be set",
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid jira client options: base URL is malformed",
			Err:        err,
		}
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid jira client options: base URL must include scheme and host",
		}
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

func validateIssueKey(issueKey string) (string, error) {
	canonicalKey := strings.ToUpper(strings.TrimSpace(issueKey))
	if !contracts.JiraIssueKeyPattern.MatchString(canonicalKey) {
		return "", &Error{
			Code:       ErrorCodeInvalidInput,
			ReasonCode: contracts.ReasonCodeValidationFailed,
			Message:    "invalid issue key",
		}
	}
	return canonicalKey, nil
}

func containsStatus(statuses []int, candidate int) bool {
	for _, status := range statuses {
		if status == candidate {
			return true
		}
	}
	return false
}

func normalizeStringSlice(values []string) []string {
	if values == nil {
		return nil
	}

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}
	return normalized
}

func extractAPIErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
		Message       string            `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return trimmed
	}

	parts := make([]string, 0, len(payload.ErrorMessages)+len(payload.Errors)+1)
	for _, message := range payload.ErrorMessages {
		message = strings.TrimSpace(message)
		if message != "" {
			parts = append(parts, message)
		}
	}

	if message := strings.TrimSpace(payload.Message); message != "" {
		parts = append(parts, message)
	}

	if len(payload.Errors) > 0 {
		keys := make([]string, 0, len(payload.Errors))
		for key := range payload.Errors {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := strings.TrimSpace(payload.Errors[key])
			if value == "" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %s", key, value))
		}
	}

	if len(parts) == 0 {
		return trimmed
	}
	return strings.Join(parts, "; ")
}

func collectLinkedKeys(links []issueLinkAPIData, wantedType string) []string {
	keys := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		if !strings.EqualFold(strings.TrimSpace(link.Type.Name), wantedType) {
			continue
		}
		for _, ref := range []*issueRefAPIData{link.InwardIssue, link.OutwardIssue} {
			if ref == nil {
				continue
			}
			key := strings.TrimSpace(ref.Key)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

type issueAPIResponse struct {
	ID     string                     `json:"id"`
	Key    string                     `json:"key"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type issueLinksAPIResponse struct {
	Fields struct {
		IssueLinks []issueLinkAPIData `json:"issuelinks"`
	} `json:"fields"`
}

type issueLinkAPIData struct {
	Type struct {
		Name string `json:"name"`
	} `json:"type"`
	InwardIssue  *issueRefAPIData `json:"inwardIssue"`
	OutwardIssue *issueRefAPIData `json:"outwardIssue"`
}

type issueRefAPIData struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type accountAPIRef struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress"`
}

type namedAPIRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createdIssueAPIResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type searchAPIResponse struct {
	Issues        []issueAPIResponse `json:"issues"`
	IsLast        bool               `json:"isLast"`
	NextPageToken string             `json:"nextPageToken"`
}

type fieldAPIData struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Schema struct {
		Custom string `json:"custom"`
	} `json:"schema"`
}

func mapAPIIssue(raw issueAPIResponse, sprintFieldID string) Issue {
	issue := Issue{
		ID:  strings.TrimSpace(raw.ID),
		Key: strings.TrimSpace(raw.Key),
	}
	if raw.Fields == nil {
		return issue
	}

	if value, ok := raw.Fields["summary"]; ok {
		var summary string
		if err := json.Unmarshal(value, &summary); err == nil {
			issue.Summary = strings.TrimSpace(summary)
		}
	}
	if value, ok := raw.Fields["description"]; ok {
		var doc ADFNode
		if err := json.Unmarshal(value, &doc); err == nil {
			issue.Description = ADFToText(doc)
		}
	}
	if value, ok := raw.Fields["issuetype"]; ok {
		var issueType namedAPIRef
		if err := json.Unmarshal(value, &issueType); err == nil {
			issue.IssueTypeName = strings.TrimSpace(issueType.Name)
		}
	}
	if value, ok := raw.Fields["project"]; ok {
		var project namedAPIRef
		if err := json.Unmarshal(value, &project); err == nil {
			issue.ProjectID = strings.TrimSpace(project.ID)
		}
	}
	if value, ok := raw.Fields["components"]; ok {
		var components []namedAPIRef
		if err := json.Unmarshal(value, &components); err == nil {
			for _, component := range components {
				if name := strings.TrimSpace(component.Name); name != "" {
					issue.Components = append(issue.Components, name)
				}
			}
		}
	}
	if value, ok := raw.Fields["assignee"]; ok {
		var assignee *accountAPIRef
		if err := json.Unmarshal(value, &assignee); err == nil && assignee != nil {
			issue.Assignee = &AccountRef{
				AccountID:   strings.TrimSpace(assignee.AccountID),
				DisplayName: strings.TrimSpace(assignee.DisplayName),
				Email:       strings.TrimSpace(assignee.Email),
			}
		}
	}
	if value, ok := raw.Fields["parent"]; ok {
		var parent *issueRefAPIData
		if err := json.Unmarshal(value, &parent); err == nil && parent != nil {
			issue.Parent = &IssueRef{ID: strings.TrimSpace(parent.ID), Key: strings.TrimSpace(parent.Key)}
		}
	}
	if sprintFieldID != "" {
		if value, ok := raw.Fields[sprintFieldID]; ok {
			issue.Sprint = parseSprintValue(value)
		}
	}

	return issue
}
