package commands

import (
	"go.uber.org/zap"

	"github.com/testgenie/testgenie/internal/config"
	"github.com/testgenie/testgenie/internal/jira"
	"github.com/testgenie/testgenie/internal/testexec"
)

// Deps carries the constructed clients a command runs against. The CLI
// shell builds one Deps per invocation; command functions stay free of
// construction and configuration concerns.
type Deps struct {
	Jira     *jira.Client
	Tests    testexec.Backend
	Settings config.RuntimeSettings
	Logger   *zap.Logger
}
