// pattern: Functional Core
package config

import (
	"os"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
)

const (
	EnvJiraAPIToken = "JIRA_API_TOKEN"
	EnvJiraBaseURL  = "JIRA_BASE_URL"
	EnvJiraEmail    = "JIRA_EMAIL"

	EnvZephyrBaseURL   = "ZEPHYR_BASE_URL"
	EnvZephyrAccessKey = "ZEPHYR_ACCESS_KEY"
	EnvZephyrSecretKey = "ZEPHYR_SECRET_KEY"
	EnvZephyrAccountID = "ZEPHYR_ACCOUNT_ID"
	EnvZephyrProjectID = "ZEPHYR_PROJECT_ID"
)

type RuntimeFlags struct {
	JiraBaseURL string
	JiraEmail   string
	ProjectKey  string
}

// Environment carries the env-only settings. Secrets never live in the
// config file.
type Environment struct {
	JiraAPIToken string
	JiraBaseURL  string
	JiraEmail    string

	ZephyrBaseURL   string
	ZephyrAccessKey string
	ZephyrSecretKey string
	ZephyrAccountID string
	ZephyrProjectID string
}

type ResolveOptions struct {
	RequireJiraCredentials bool
}

// RuntimeSettings is the fully resolved runtime view: file settings merged
// with flags and environment, flags winning over env winning over file.
type RuntimeSettings struct {
	JiraBaseURL   string
	JiraEmail     string
	JiraAPIToken  string
	ProjectKey    string
	ProjectID     string
	SprintFieldID string

	// ZephyrEnabled is decided once here; when false the stub test
	// execution backend is selected and no call site branches on it again.
	ZephyrEnabled   bool
	ZephyrBaseURL   string
	ZephyrAccessKey string
	ZephyrSecretKey string
	ZephyrAccountID string
	ZephyrProjectID string
}

func Resolve(config contracts.Config, flags RuntimeFlags, env Environment, options ResolveOptions) (RuntimeSettings, error) {
	if err := contracts.ValidateConfig(config); err != nil {
		return RuntimeSettings{}, &ResolveError{
			Code:    ResolveErrorCodeInvalidConfig,
			Message: "configuration is invalid",
			Err:     err,
		}
	}

	projectKey := firstNonEmpty(flags.ProjectKey, config.Jira.ProjectKey)
	if flags.ProjectKey != "" && strings.TrimSpace(flags.ProjectKey) == "" {
		return RuntimeSettings{}, &ResolveError{
			Code:    ResolveErrorCodeInvalidFlag,
			Message: "--project must not be only whitespace",
		}
	}

	settings := RuntimeSettings{
		JiraBaseURL:   firstNonEmpty(flags.JiraBaseURL, env.JiraBaseURL, config.Jira.BaseURL),
		JiraEmail:     firstNonEmpty(flags.JiraEmail, env.JiraEmail, config.Jira.Email),
		JiraAPIToken:  strings.TrimSpace(env.JiraAPIToken),
		ProjectKey:    projectKey,
		ProjectID:     strings.TrimSpace(config.Jira.ProjectID),
		SprintFieldID: strings.TrimSpace(config.Jira.SprintFieldID),

		ZephyrBaseURL:   firstNonEmpty(env.ZephyrBaseURL, config.Zephyr.BaseURL),
		ZephyrAccessKey: strings.TrimSpace(env.ZephyrAccessKey),
		ZephyrSecretKey: strings.TrimSpace(env.ZephyrSecretKey),
		ZephyrAccountID: firstNonEmpty(env.ZephyrAccountID, config.Zephyr.AccountID),
		ZephyrProjectID: firstNonEmpty(env.ZephyrProjectID, config.Zephyr.ProjectID),
	}

	if options.RequireJiraCredentials {
		if settings.JiraBaseURL == "" {
			return RuntimeSettings{}, &ResolveError{
				Code:    ResolveErrorCodeMissingSetting,
				Message: "jira base URL is required: set jira.base_url or " + EnvJiraBaseURL,
			}
		}
		if settings.JiraEmail == "" {
			return RuntimeSettings{}, &ResolveError{
				Code:    ResolveErrorCodeMissingSetting,
				Message: "jira email is required: set jira.email or " + EnvJiraEmail,
			}
		}
		if settings.JiraAPIToken == "" {
			return RuntimeSettings{}, &ResolveError{
				Code:    ResolveErrorCodeMissingSetting,
				Message: EnvJiraAPIToken + " is required",
			}
		}
	}

	settings.ZephyrEnabled = settings.ZephyrBaseURL != "" &&
		settings.ZephyrAccessKey != "" &&
		settings.ZephyrSecretKey != ""

	return settings, nil
}

func EnvironmentFromOS() Environment {
	return EnvironmentFromLookup(os.LookupEnv)
}

func EnvironmentFromLookup(lookup func(string) (string, bool)) Environment {
	if lookup == nil {
		return Environment{}
	}

	return Environment{
		JiraAPIToken: lookupTrimmed(lookup, EnvJiraAPIToken),
		JiraBaseURL:  lookupTrimmed(lookup, EnvJiraBaseURL),
		JiraEmail:    lookupTrimmed(lookup, EnvJiraEmail),

		ZephyrBaseURL:   lookupTrimmed(lookup, EnvZephyrBaseURL),
		ZephyrAccessKey: lookupTrimmed(lookup, EnvZephyrAccessKey),
		ZephyrSecretKey: lookupTrimmed(lookup, EnvZephyrSecretKey),
		ZephyrAccountID: lookupTrimmed(lookup, EnvZephyrAccountID),
		ZephyrProjectID: lookupTrimmed(lookup, EnvZephyrProjectID),
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func lookupTrimmed(lookup func(string) (string, bool), key string) string {
	value, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}
