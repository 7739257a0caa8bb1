package commands

import (
	"context"
	"fmt"

	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/output"
)

// RunStatus reports connectivity: whether the configured credentials reach
// the issue tracker, and whether the test execution backend is enabled.
func RunStatus(ctx context.Context, deps Deps, _ struct{}) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandStatus)}

	account, err := deps.Jira.HealthCheck(ctx)
	if err != nil {
		return report, err
	}

	testBackend := map[string]any{
		"enabled": deps.Tests.Enabled(),
	}
	report.Data = map[string]any{
		"jira": map[string]any{
			"ok":          true,
			"accountId":   account.AccountID,
			"displayName": account.DisplayName,
		},
		"testBackend": testBackend,
	}

	report.HumanLines = []string{
		fmt.Sprintf("jira: ok (%s)", account.DisplayName),
		fmt.Sprintf("test backend: enabled=%t", deps.Tests.Enabled()),
	}

	if !deps.Tests.Enabled() {
		report.Warnings = append(report.Warnings, contracts.Warning{
			ReasonCode: contracts.ReasonCodeTestBackendDisabled,
			Text:       "test execution backend is not configured",
		})
		return report, nil
	}

	// The status catalog doubles as the test backend's reachability check.
	statuses, statusErr := deps.Tests.ExecutionStatuses(ctx)
	if statusErr != nil {
		report.Warnings = append(report.Warnings, contracts.Warning{
			ReasonCode: contracts.ReasonCodeTransportError,
			Text:       fmt.Sprintf("test backend status catalog unavailable: %v", statusErr),
		})
		return report, nil
	}

	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, status.Name)
	}
	testBackend["statuses"] = names
	report.HumanLines = append(report.HumanLines, fmt.Sprintf("test backend statuses: %d", len(names)))

	return report, nil
}
