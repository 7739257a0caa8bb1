package jira

// Issue is a read-only projection of a remote issue, constructed fresh per
// request and never cached beyond one call.
type Issue struct {
	ID            string
	Key           string
	Summary       string
	Description   string
	IssueTypeName string
	ProjectID     string
	Components    []string
	Assignee      *AccountRef
	Parent        *IssueRef
	Sprint        *Sprint
}

type AccountRef struct {
	AccountID   string
	DisplayName string
	Email       string
}

type IssueRef struct {
	ID  string
	Key string
}

// Sprint is the active sprint attached to an issue, if any.
type Sprint struct {
	Name  string
	State string
}

// CreateBugInput carries the fields for a new bug issue. Description is
// plain text; the client converts it to a rich-text document body.
type CreateBugInput struct {
	ProjectKey        string
	Summary           string
	Description       string
	Components        []string
	Labels            []string
	PriorityName      string
	AssigneeAccountID string
}

type CreatedIssue struct {
	ID   string
	Key  string
	Self string
}

// SkippedLink records one linked issue that could not be hydrated during a
// fan-out; per-item failures never fail the batch.
type SkippedLink struct {
	Key string
	Err error
}

type LinkedIssuesResult struct {
	Issues  []Issue
	Skipped []SkippedLink
}

type SearchRequest struct {
	JQL           string
	MaxResults    int
	Fields        []string
	NextPageToken string
}

type SearchResult struct {
	Issues        []Issue
	IsLast        bool
	NextPageToken string
}

// Field is one entry of the remote field catalog.
type Field struct {
	ID     string
	Name   string
	Custom bool
	Schema string
}
