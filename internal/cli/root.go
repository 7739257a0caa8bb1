package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/testgenie/testgenie/internal/commands"
	"github.com/testgenie/testgenie/internal/config"
	"github.com/testgenie/testgenie/internal/contracts"
	httpclient "github.com/testgenie/testgenie/internal/http"
	"github.com/testgenie/testgenie/internal/jira"
	"github.com/testgenie/testgenie/internal/output"
	"github.com/testgenie/testgenie/internal/testexec"
	"github.com/testgenie/testgenie/internal/zephyr"
)

type AppContext struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Stdin     io.Reader
	Now       func() time.Time
	LookupEnv func(string) (string, bool)
	HTTPDoer  httpclient.Doer
}

type GlobalFlags struct {
	JSON       bool
	Verbose    bool
	ConfigPath string
}

type executionState struct {
	global      GlobalFlags
	commandName string
}

func (state *executionState) outputMode() contracts.OutputMode {
	if state.global.JSON {
		return contracts.OutputModeJSON
	}
	return contracts.OutputModeHuman
}

func (state *executionState) resolvedCommandName() string {
	if state.commandName != "" {
		return state.commandName
	}
	return "root"
}

// depNeeds declares which clients a command requires; commands that only
// validate local input skip credential resolution entirely.
type depNeeds struct {
	Jira  bool
	Tests bool
}

// Run executes the CLI using shared output and exit-code plumbing.
func Run(args []string, stdout io.Writer, stderr io.Writer) int {
	app := normalizeAppContext(AppContext{
		Stdout: stdout,
		Stderr: stderr,
		Stdin:  os.Stdin,
	})

	root, state := newRootCommand(app)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return int(contracts.ExitCodeSuccess)
	}

	var exitErr *codedExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}

	report := output.Report{CommandName: state.resolvedCommandName()}
	if renderErr := output.Write(state.outputMode(), app.Stdout, app.Stderr, report, 0, err); renderErr != nil {
		_, _ = fmt.Fprintln(app.Stderr, output.FormatDiagnostic(renderErr))
	}

	return int(contracts.ExitCodeFatal)
}

// NewRootCommand constructs the Cobra command tree for the CLI.
func NewRootCommand(app AppContext) *cobra.Command {
	root, _ := newRootCommand(app)
	return root
}

func newRootCommand(app AppContext) (*cobra.Command, *executionState) {
	app = normalizeAppContext(app)
	state := &executionState{}

	root := &cobra.Command{
		Use:           "testgenie",
		Short:         "Issue tracker and test execution companion for AI-generated bug reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&state.global.JSON, "json", false, "emit machine-readable JSON envelope output")
	root.PersistentFlags().BoolVar(&state.global.Verbose, "verbose", false, "emit debug logs on stderr")
	root.PersistentFlags().StringVar(&state.global.ConfigPath, "config", "", "config file path (default "+contracts.ConfigFilePath+")")

	root.AddCommand(newIssueViewCommand(app, state))
	root.AddCommand(newIssueLinksCommand(app, state))
	root.AddCommand(newIssueLinkCommand(app, state))
	root.AddCommand(newIssueSearchCommand(app, state))
	root.AddCommand(newBugNewCommand(app, state))
	root.AddCommand(newTestStatusCommand(app, state))
	root.AddCommand(newTestStepsCommand(app, state))
	root.AddCommand(newExtractCommand(app, state))
	root.AddCommand(newStatusCommand(app, state))

	return root, state
}

func newIssueViewCommand(app AppContext, state *executionState) *cobra.Command {
	return &cobra.Command{
		Use:   string(contracts.CommandIssueView) + " KEY",
		Short: "Show one issue with its components, parent, and active sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandIssueView, depNeeds{Jira: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunIssueView(ctx, deps, commands.IssueViewOptions{Key: args[0]})
				})
		},
	}
}

func newIssueLinksCommand(app AppContext, state *executionState) *cobra.Command {
	linkType := ""

	cmd := &cobra.Command{
		Use:   string(contracts.CommandIssueLinks) + " KEY",
		Short: "List issues linked to an issue through one link type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandIssueLinks, depNeeds{Jira: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunIssueLinks(ctx, deps, commands.IssueLinksOptions{
						Key:      args[0],
						LinkType: linkType,
					})
				})
		},
	}
	cmd.Flags().StringVar(&linkType, "type", "Relates", "link type name")
	return cmd
}

func newIssueLinkCommand(app AppContext, state *executionState) *cobra.Command {
	linkType := ""

	cmd := &cobra.Command{
		Use:   string(contracts.CommandIssueLink) + " INWARD_KEY OUTWARD_KEY",
		Short: "Link two issues",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandIssueLink, depNeeds{Jira: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunIssueLink(ctx, deps, commands.IssueLinkOptions{
						LinkType:   linkType,
						InwardKey:  args[0],
						OutwardKey: args[1],
					})
				})
		},
	}
	cmd.Flags().StringVar(&linkType, "type", "Relates", "link type name")
	return cmd
}

func newIssueSearchCommand(app AppContext, state *executionState) *cobra.Command {
	options := commands.IssueSearchOptions{}

	cmd := &cobra.Command{
		Use:   string(contracts.CommandIssueSearch) + " JQL",
		Short: "Run one page of a JQL search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandIssueSearch, depNeeds{Jira: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					options.JQL = args[0]
					return commands.RunIssueSearch(ctx, deps, options)
				})
		},
	}
	cmd.Flags().IntVar(&options.MaxResults, "max", 0, "page size (default server-side)")
	cmd.Flags().StringVar(&options.PageToken, "page-token", "", "token returned by the previous page")
	return cmd
}

func newBugNewCommand(app AppContext, state *executionState) *cobra.Command {
	options := commands.BugNewOptions{}

	cmd := &cobra.Command{
		Use:   string(contracts.CommandBugNew),
		Short: "Extract a bug report from model output and file it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandBugNew, depNeeds{Jira: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					options.Stdin = app.Stdin
					return commands.RunBugNew(ctx, deps, options)
				})
		},
	}
	cmd.Flags().StringVar(&options.InputPath, "input", "", "model output file (default stdin)")
	cmd.Flags().StringVar(&options.ProjectKey, "project", "", "project key (default from config)")
	cmd.Flags().StringVar(&options.Component, "component", "", "component to file under and prefix the title with")
	cmd.Flags().StringArrayVar(&options.Labels, "label", nil, "label to apply, repeatable")
	cmd.Flags().StringVar(&options.Assignee, "assignee", "", "assignee account ID")
	cmd.Flags().StringVar(&options.LinkToKey, "link-to", "", "issue key to link the created bug to")
	cmd.Flags().StringVar(&options.LinkTypeName, "link-type", "", "link type for --link-to (default Relates)")
	return cmd
}

func newTestStatusCommand(app AppContext, state *executionState) *cobra.Command {
	return &cobra.Command{
		Use:   string(contracts.CommandTestStatus) + " KEY",
		Short: "Show the normalized test execution status of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandTestStatus, depNeeds{Jira: true, Tests: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunTestStatus(ctx, deps, commands.TestStatusOptions{Key: args[0]})
				})
		},
	}
}

func newTestStepsCommand(app AppContext, state *executionState) *cobra.Command {
	return &cobra.Command{
		Use:   string(contracts.CommandTestSteps) + " KEY",
		Short: "List the manual test steps of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandTestSteps, depNeeds{Jira: true, Tests: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunTestSteps(ctx, deps, commands.TestStepsOptions{Key: args[0]})
				})
		},
	}
}

func newExtractCommand(app AppContext, state *executionState) *cobra.Command {
	options := commands.ExtractOptions{}

	cmd := &cobra.Command{
		Use:   string(contracts.CommandExtract),
		Short: "Validate and normalize a bug report from model output without filing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandExtract, depNeeds{},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					options.Stdin = app.Stdin
					return commands.RunExtract(ctx, deps, options)
				})
		},
	}
	cmd.Flags().StringVar(&options.InputPath, "input", "", "model output file (default stdin)")
	cmd.Flags().StringVar(&options.Component, "component", "", "component to prefix the title with")
	return cmd
}

func newStatusCommand(app AppContext, state *executionState) *cobra.Command {
	return &cobra.Command{
		Use:   string(contracts.CommandStatus),
		Short: "Check connectivity to the configured services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), app, state, contracts.CommandStatus, depNeeds{Jira: true, Tests: true},
				func(ctx context.Context, deps commands.Deps) (output.Report, error) {
					return commands.RunStatus(ctx, deps, struct{}{})
				})
		},
	}
}

func runCommand(
	ctx context.Context,
	app AppContext,
	state *executionState,
	name contracts.CommandName,
	needs depNeeds,
	run func(ctx context.Context, deps commands.Deps) (output.Report, error),
) error {
	state.commandName = string(name)
	start := app.Now()

	deps, err := buildDeps(app, state, needs)
	var report output.Report
	if err != nil {
		report = output.Report{CommandName: string(name)}
	} else {
		report, err = run(ctx, deps)
	}

	duration := app.Now().Sub(start)
	if renderErr := output.Write(state.outputMode(), app.Stdout, app.Stderr, report, duration, err); renderErr != nil {
		return renderErr
	}

	return &codedExitError{Code: output.ResolveExitCode(report, err)}
}

func buildDeps(app AppContext, state *executionState, needs depNeeds) (commands.Deps, error) {
	settings, err := resolveSettings(app, state, needs)
	if err != nil {
		return commands.Deps{}, err
	}

	logger := newLogger(state.global.Verbose, app.Stderr)
	deps := commands.Deps{Settings: settings, Logger: logger}

	if needs.Jira {
		client, err := jira.NewClient(jira.ClientOptions{
			BaseURL:       settings.JiraBaseURL,
			Email:         settings.JiraEmail,
			APIToken:      settings.JiraAPIToken,
			SprintFieldID: settings.SprintFieldID,
			HTTPDoer:      app.HTTPDoer,
			Logger:        logger,
		})
		if err != nil {
			return commands.Deps{}, err
		}
		deps.Jira = client
	}

	if needs.Tests {
		var client *zephyr.Client
		if settings.ZephyrEnabled {
			client, err = zephyr.NewClient(zephyr.ClientOptions{
				BaseURL:   settings.ZephyrBaseURL,
				AccessKey: settings.ZephyrAccessKey,
				SecretKey: settings.ZephyrSecretKey,
				AccountID: settings.ZephyrAccountID,
				ProjectID: settings.ZephyrProjectID,
				HTTPDoer:  app.HTTPDoer,
				Logger:    logger,
			})
			if err != nil {
				return commands.Deps{}, err
			}
		}
		deps.Tests = testexec.NewBackend(client, logger)
	}

	return deps, nil
}

func resolveSettings(app AppContext, state *executionState, needs depNeeds) (config.RuntimeSettings, error) {
	if !needs.Jira && !needs.Tests {
		return config.RuntimeSettings{}, nil
	}

	cfg, err := config.Read(state.global.ConfigPath)
	if err != nil {
		// A missing config file is fine when the environment carries the
		// settings; anything else in the file is a real failure.
		var configErr *config.Error
		if !errors.As(err, &configErr) || configErr.Code != config.ErrorCodeReadFailed || !os.IsNotExist(configErr.Err) {
			return config.RuntimeSettings{}, err
		}
		cfg = contracts.Config{ConfigVersion: contracts.ConfigSchemaVersionV1}
	}

	return config.Resolve(cfg, config.RuntimeFlags{}, config.EnvironmentFromLookup(app.LookupEnv), config.ResolveOptions{
		RequireJiraCredentials: needs.Jira,
	})
}

func newLogger(verbose bool, stderr io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), zapcore.DebugLevel)
	return zap.New(core)
}

func normalizeAppContext(app AppContext) AppContext {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.LookupEnv == nil {
		app.LookupEnv = os.LookupEnv
	}
	return app
}

type codedExitError struct {
	Code contracts.ExitCode
}

func (err codedExitError) Error() string {
	return fmt.Sprintf("exit with code %d", err.Code)
}
