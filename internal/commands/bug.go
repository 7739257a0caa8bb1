package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/testgenie/testgenie/internal/bugreport"
	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/jira"
	"github.com/testgenie/testgenie/internal/output"
)

type BugNewOptions struct {
	// InputPath points at the model output to extract the report from;
	// "-" or empty reads stdin.
	InputPath string
	Stdin     io.Reader

	ProjectKey string
	Component  string
	Labels     []string
	Assignee   string

	// LinkToKey optionally links the created bug to an existing issue.
	LinkToKey    string
	LinkTypeName string
}

func RunBugNew(ctx context.Context, deps Deps, options BugNewOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandBugNew)}

	raw, err := readInput(options.InputPath, options.Stdin)
	if err != nil {
		return report, err
	}

	parsed, err := bugreport.Extract(raw)
	if err != nil {
		return report, err
	}

	component := strings.TrimSpace(options.Component)
	if component == "" {
		component = parsed.Component
	}

	projectKey := strings.TrimSpace(options.ProjectKey)
	if projectKey == "" {
		projectKey = deps.Settings.ProjectKey
	}

	input := jira.CreateBugInput{
		ProjectKey:        projectKey,
		Summary:           bugreport.PrefixTitle(component, parsed.Title),
		Description:       renderBugDescription(parsed),
		Labels:            options.Labels,
		PriorityName:      parsed.Priority,
		AssigneeAccountID: options.Assignee,
	}
	if component != "" {
		input.Components = []string{component}
	}

	created, err := deps.Jira.CreateBug(ctx, input)
	if err != nil {
		return report, err
	}

	report.Data = map[string]any{
		"id":       created.ID,
		"key":      created.Key,
		"self":     created.Self,
		"priority": parsed.Priority,
	}
	report.HumanLines = []string{fmt.Sprintf("created %s: %s", created.Key, input.Summary)}

	if linkKey := strings.TrimSpace(options.LinkToKey); linkKey != "" {
		linkType := strings.TrimSpace(options.LinkTypeName)
		if linkType == "" {
			linkType = "Relates"
		}
		if err := deps.Jira.LinkIssues(ctx, linkType, created.Key, linkKey); err != nil {
			report.Warnings = append(report.Warnings, contracts.Warning{
				ReasonCode: contracts.ReasonCodeTransportError,
				Text:       fmt.Sprintf("created %s but failed to link it to %s: %v", created.Key, linkKey, err),
			})
		} else {
			report.HumanLines = append(report.HumanLines, fmt.Sprintf("linked %s -> %s (%s)", created.Key, linkKey, linkType))
		}
	}

	return report, nil
}

// renderBugDescription lays the report out as the plain-text description
// body; the client converts it to rich text on submission.
func renderBugDescription(report bugreport.Report) string {
	var builder strings.Builder
	builder.WriteString(report.Description)

	if len(report.StepsToReproduce) > 0 {
		builder.WriteString("\n\nSteps to reproduce:\n")
		for i, step := range report.StepsToReproduce {
			fmt.Fprintf(&builder, "%d. %s\n", i+1, step)
		}
	}
	if report.ExpectedResult != "" {
		builder.WriteString("\nExpected result:\n" + report.ExpectedResult + "\n")
	}
	if report.ActualResult != "" {
		builder.WriteString("\nActual result:\n" + report.ActualResult + "\n")
	}
	if report.Environment != "" {
		builder.WriteString("\nEnvironment: " + report.Environment + "\n")
	}
	if report.Reproducibility != "" {
		builder.WriteString("Reproducibility: " + report.Reproducibility + "\n")
	}
	if report.Workaround != nil {
		builder.WriteString("Workaround: " + *report.Workaround + "\n")
	}
	if report.Impact != "" {
		builder.WriteString("Impact: " + report.Impact + "\n")
	}

	return strings.TrimRight(builder.String(), "\n")
}

func readInput(path string, stdin io.Reader) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		if stdin == nil {
			return "", fmt.Errorf("no input available: provide --input or pipe to stdin")
		}
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(raw), nil
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	return string(raw), nil
}
