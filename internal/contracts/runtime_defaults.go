package contracts

import (
	"regexp"
	"time"
)

const (
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseBackoff = 500 * time.Millisecond

	// DefaultLinkedIssueConcurrency bounds the fan-out when hydrating an
	// issue's linked issues.
	DefaultLinkedIssueConcurrency = 4

	// DefaultExecutionPageSize is the page size requested from the
	// test-execution service when searching executions.
	DefaultExecutionPageSize = 50
)

type CommandName string

const (
	CommandIssueView   CommandName = "issue-view"
	CommandIssueLinks  CommandName = "issue-links"
	CommandIssueLink   CommandName = "issue-link"
	CommandIssueSearch CommandName = "issue-search"
	CommandBugNew      CommandName = "bug-new"
	CommandTestStatus  CommandName = "test-status"
	CommandTestSteps   CommandName = "test-steps"
	CommandExtract     CommandName = "extract"
	CommandStatus      CommandName = "status"
)

// JiraIssueKeyPattern matches canonical issue keys like PROJ-123.
var JiraIssueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)
