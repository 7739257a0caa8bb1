package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/jira"
	"github.com/testgenie/testgenie/internal/output"
)

type IssueViewOptions struct {
	Key string
}

func RunIssueView(ctx context.Context, deps Deps, options IssueViewOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandIssueView)}

	issue, err := deps.Jira.GetIssue(ctx, options.Key)
	if err != nil {
		return report, err
	}

	report.Data = issueData(issue)
	report.HumanLines = issueHumanLines(issue)
	return report, nil
}

type IssueLinksOptions struct {
	Key      string
	LinkType string
}

func RunIssueLinks(ctx context.Context, deps Deps, options IssueLinksOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandIssueLinks)}

	result, err := deps.Jira.GetLinkedIssuesByType(ctx, options.Key, options.LinkType)
	if err != nil {
		return report, err
	}

	linked := make([]map[string]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		linked = append(linked, issueData(issue))
	}
	report.Data = map[string]any{
		"key":      strings.ToUpper(strings.TrimSpace(options.Key)),
		"linkType": options.LinkType,
		"issues":   linked,
	}

	report.HumanLines = append(report.HumanLines, fmt.Sprintf("%d issue(s) linked via %q", len(result.Issues), options.LinkType))
	for _, issue := range result.Issues {
		report.HumanLines = append(report.HumanLines, fmt.Sprintf("- %s %s", issue.Key, issue.Summary))
	}

	for _, skipped := range result.Skipped {
		report.Warnings = append(report.Warnings, contracts.Warning{
			ReasonCode: jira.ReasonCodeOf(skipped.Err),
			Text:       fmt.Sprintf("skipped linked issue %s: %v", skipped.Key, skipped.Err),
		})
	}

	return report, nil
}

type IssueLinkOptions struct {
	LinkType   string
	InwardKey  string
	OutwardKey string
}

func RunIssueLink(ctx context.Context, deps Deps, options IssueLinkOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandIssueLink)}

	if err := deps.Jira.LinkIssues(ctx, options.LinkType, options.InwardKey, options.OutwardKey); err != nil {
		return report, err
	}

	report.Data = map[string]any{
		"linkType": options.LinkType,
		"inward":   strings.ToUpper(strings.TrimSpace(options.InwardKey)),
		"outward":  strings.ToUpper(strings.TrimSpace(options.OutwardKey)),
	}
	report.HumanLines = []string{fmt.Sprintf(
		"linked %s -> %s (%s)",
		strings.ToUpper(strings.TrimSpace(options.InwardKey)),
		strings.ToUpper(strings.TrimSpace(options.OutwardKey)),
		options.LinkType,
	)}
	return report, nil
}

func issueData(issue jira.Issue) map[string]any {
	data := map[string]any{
		"id":         issue.ID,
		"key":        issue.Key,
		"summary":    issue.Summary,
		"issueType":  issue.IssueTypeName,
		"projectId":  issue.ProjectID,
		"components": issue.Components,
	}
	if issue.Description != "" {
		data["description"] = issue.Description
	}
	if issue.Assignee != nil {
		data["assignee"] = map[string]string{
			"accountId":   issue.Assignee.AccountID,
			"displayName": issue.Assignee.DisplayName,
		}
	}
	if issue.Parent != nil {
		data["parent"] = issue.Parent.Key
	}
	if issue.Sprint != nil {
		data["sprint"] = map[string]string{"name": issue.Sprint.Name, "state": issue.Sprint.State}
	}
	return data
}

func issueHumanLines(issue jira.Issue) []string {
	lines := []string{
		fmt.Sprintf("%s %s", issue.Key, issue.Summary),
		"type: " + issue.IssueTypeName,
	}
	if len(issue.Components) > 0 {
		lines = append(lines, "components: "+strings.Join(issue.Components, ", "))
	}
	if issue.Assignee != nil {
		lines = append(lines, "assignee: "+issue.Assignee.DisplayName)
	}
	if issue.Parent != nil {
		lines = append(lines, "parent: "+issue.Parent.Key)
	}
	if issue.Sprint != nil {
		lines = append(lines, fmt.Sprintf("sprint: %s (%s)", issue.Sprint.Name, issue.Sprint.State))
	}
	if issue.Description != "" {
		lines = append(lines, "", issue.Description)
	}
	return lines
}
