package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/output"
)

type TestStatusOptions struct {
	Key string
}

func RunTestStatus(ctx context.Context, deps Deps, options TestStatusOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandTestStatus)}

	issue, err := deps.Jira.GetIssue(ctx, options.Key)
	if err != nil {
		return report, err
	}

	result, err := deps.Tests.TestStatus(ctx, issue.ID, issue.Key)
	if err != nil {
		return report, err
	}

	report.Data = map[string]any{
		"key":    issue.Key,
		"status": string(result.Status),
	}
	report.HumanLines = []string{fmt.Sprintf("%s: %s", issue.Key, result.Status)}

	if !deps.Tests.Enabled() {
		report.Warnings = append(report.Warnings, contracts.Warning{
			ReasonCode: contracts.ReasonCodeTestBackendDisabled,
			Text:       "test execution backend is not configured, status defaults to UNKNOWN",
		})
	}

	return report, nil
}

type TestStepsOptions struct {
	Key string
}

func RunTestSteps(ctx context.Context, deps Deps, options TestStepsOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandTestSteps)}

	issue, err := deps.Jira.GetIssue(ctx, options.Key)
	if err != nil {
		return report, err
	}

	steps, err := deps.Tests.TestSteps(ctx, issue.ID)
	if err != nil {
		return report, err
	}

	report.Data = map[string]any{
		"key":   issue.Key,
		"steps": steps,
	}

	report.HumanLines = append(report.HumanLines, fmt.Sprintf("%s: %d step(s)", issue.Key, len(steps)))
	for i, step := range steps {
		line := fmt.Sprintf("%d. %s", i+1, step.Step)
		if step.Result != "" {
			line += " => " + step.Result
		}
		report.HumanLines = append(report.HumanLines, line)
		if data := strings.TrimSpace(step.Data); data != "" {
			report.HumanLines = append(report.HumanLines, "   data: "+data)
		}
	}

	if !deps.Tests.Enabled() {
		report.Warnings = append(report.Warnings, contracts.Warning{
			ReasonCode: contracts.ReasonCodeTestBackendDisabled,
			Text:       "test execution backend is not configured, step list is empty",
		})
	}

	return report, nil
}
