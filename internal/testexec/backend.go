// Package testexec selects the test execution backend once at startup, so
// call sites never branch on configuration.
package testexec

import (
	"context"

	"go.uber.org/zap"

	"github.com/testgenie/testgenie/internal/zephyr"
)

// Backend answers test execution queries for issues. Exactly one
// implementation is chosen when the process starts.
type Backend interface {
	TestStatus(ctx context.Context, issueID string, issueKey string) (zephyr.TestStatusResult, error)
	TestSteps(ctx context.Context, issueID string) ([]zephyr.TestStep, error)
	ExecutionStatuses(ctx context.Context) ([]zephyr.ExecutionStatus, error)
	Enabled() bool
}

// NewBackend returns the live backend when a client is configured and the
// disabled backend otherwise.
func NewBackend(client *zephyr.Client, logger *zap.Logger) Backend {
	if client == nil {
		if logger != nil {
			logger.Info("test execution backend not configured, test queries will report unknown")
		}
		return disabledBackend{}
	}
	return &zephyrBackend{client: client}
}

type zephyrBackend struct {
	client *zephyr.Client
}

func (b *zephyrBackend) TestStatus(ctx context.Context, issueID string, issueKey string) (zephyr.TestStatusResult, error) {
	return b.client.GetTestStatus(ctx, issueID, issueKey)
}

func (b *zephyrBackend) TestSteps(ctx context.Context, issueID string) ([]zephyr.TestStep, error) {
	return b.client.GetTestSteps(ctx, issueID)
}

func (b *zephyrBackend) ExecutionStatuses(ctx context.Context) ([]zephyr.ExecutionStatus, error) {
	return b.client.ListExecutionStatuses(ctx)
}

func (b *zephyrBackend) Enabled() bool { return true }

// disabledBackend stands in when credentials are absent: statuses are
// UNKNOWN and step lists are empty, never errors.
type disabledBackend struct{}

func (disabledBackend) TestStatus(context.Context, string, string) (zephyr.TestStatusResult, error) {
	return zephyr.TestStatusResult{Status: zephyr.StatusUnknown}, nil
}

func (disabledBackend) TestSteps(context.Context, string) ([]zephyr.TestStep, error) {
	return nil, nil
}

func (disabledBackend) ExecutionStatuses(context.Context) ([]zephyr.ExecutionStatus, error) {
	return nil, nil
}

func (disabledBackend) Enabled() bool { return false }
