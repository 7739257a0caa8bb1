package commands

import (
	"context"
	"fmt"

	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/jira"
	"github.com/testgenie/testgenie/internal/output"
)

type IssueSearchOptions struct {
	JQL        string
	MaxResults int
	PageToken  string
}

// RunIssueSearch runs one page of a JQL search. Pagination is driven by the
// caller re-running the command with the returned page token.
func RunIssueSearch(ctx context.Context, deps Deps, options IssueSearchOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandIssueSearch)}

	result, err := deps.Jira.SearchIssues(ctx, jira.SearchRequest{
		JQL:           options.JQL,
		MaxResults:    options.MaxResults,
		Fields:        []string{"summary", "issuetype", "project", "components", "assignee"},
		NextPageToken: options.PageToken,
	})
	if err != nil {
		return report, err
	}

	found := make([]map[string]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		found = append(found, issueData(issue))
	}
	report.Data = map[string]any{
		"jql":           options.JQL,
		"issues":        found,
		"isLast":        result.IsLast,
		"nextPageToken": result.NextPageToken,
	}

	report.HumanLines = append(report.HumanLines, fmt.Sprintf("%d issue(s) found", len(result.Issues)))
	for _, issue := range result.Issues {
		report.HumanLines = append(report.HumanLines, fmt.Sprintf("- %s %s", issue.Key, issue.Summary))
	}
	if !result.IsLast && result.NextPageToken != "" {
		report.HumanLines = append(report.HumanLines, "next page token: "+result.NextPageToken)
	}

	return report, nil
}
