package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/testgenie/testgenie/internal/bugreport"
	"github.com/testgenie/testgenie/internal/contracts"
	"github.com/testgenie/testgenie/internal/output"
)

type ExtractOptions struct {
	InputPath string
	Stdin     io.Reader
	Component string
}

// RunExtract validates model output offline: no network, no issue created.
func RunExtract(_ context.Context, _ Deps, options ExtractOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandExtract)}

	raw, err := readInput(options.InputPath, options.Stdin)
	if err != nil {
		return report, err
	}

	parsed, err := bugreport.Extract(raw)
	if err != nil {
		return report, err
	}

	component := options.Component
	if component == "" {
		component = parsed.Component
	}
	parsed.Title = bugreport.PrefixTitle(component, parsed.Title)

	report.Data = parsed
	report.HumanLines = []string{
		"title: " + parsed.Title,
		"priority: " + parsed.Priority,
		fmt.Sprintf("steps: %d", len(parsed.StepsToReproduce)),
	}
	return report, nil
}
