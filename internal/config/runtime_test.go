package config

import (
	"errors"
	"testing"

	"github.com/testgenie/testgenie/internal/contracts"
)

func validConfig() contracts.Config {
	return contracts.Config{
		ConfigVersion: contracts.ConfigSchemaVersionV1,
		Jira: contracts.JiraConfig{
			BaseURL:    "https://file.example.test",
			Email:      "file@example.test",
			ProjectKey: "PROJ",
		},
		Zephyr: contracts.ZephyrConfig{
			BaseURL: "https://tests.example.test/connect",
		},
	}
}

func TestResolvePrecedenceFlagsOverEnvOverFile(t *testing.T) {
	t.Parallel()

	settings, err := Resolve(validConfig(), RuntimeFlags{
		JiraBaseURL: "https://flag.example.test",
	}, Environment{
		JiraBaseURL:  "https://env.example.test",
		JiraEmail:    "env@example.test",
		JiraAPIToken: "token-123",
	}, ResolveOptions{RequireJiraCredentials: true})
	if err != nil {
		t.Fatalf("expected resolve success, got %v", err)
	}

	if settings.JiraBaseURL != "https://flag.example.test" {
		t.Fatalf("expected flag to win, got %q", settings.JiraBaseURL)
	}
	if settings.JiraEmail != "env@example.test" {
		t.Fatalf("expected env to win over file, got %q", settings.JiraEmail)
	}
	if settings.ProjectKey != "PROJ" {
		t.Fatalf("expected file project key, got %q", settings.ProjectKey)
	}
}

func TestResolveRequiresJiraCredentialsWhenAsked(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	_, err := Resolve(cfg, RuntimeFlags{}, Environment{}, ResolveOptions{RequireJiraCredentials: true})
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) || resolveErr.Code != ResolveErrorCodeMissingSetting {
		t.Fatalf("expected missing setting for absent token, got %v", err)
	}

	if _, err := Resolve(cfg, RuntimeFlags{}, Environment{}, ResolveOptions{}); err != nil {
		t.Fatalf("expected resolve without credential requirement to pass, got %v", err)
	}
}

func TestResolveZephyrEnabledOnlyWithFullCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  Environment
		want bool
	}{
		{
			name: "complete credentials enable the backend",
			env:  Environment{ZephyrAccessKey: "ak", ZephyrSecretKey: "sk"},
			want: true,
		},
		{
			name: "missing secret disables",
			env:  Environment{ZephyrAccessKey: "ak"},
			want: false,
		},
		{
			name: "missing access key disables",
			env:  Environment{ZephyrSecretKey: "sk"},
			want: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			settings, err := Resolve(validConfig(), RuntimeFlags{}, tc.env, ResolveOptions{})
			if err != nil {
				t.Fatalf("expected resolve success, got %v", err)
			}
			if settings.ZephyrEnabled != tc.want {
				t.Fatalf("expected ZephyrEnabled=%t, got %t", tc.want, settings.ZephyrEnabled)
			}
		})
	}
}

func TestResolveZephyrDisabledWithoutBaseURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Zephyr.BaseURL = ""

	settings, err := Resolve(cfg, RuntimeFlags{}, Environment{
		ZephyrAccessKey: "ak",
		ZephyrSecretKey: "sk",
	}, ResolveOptions{})
	if err != nil {
		t.Fatalf("expected resolve success, got %v", err)
	}
	if settings.ZephyrEnabled {
		t.Fatal("expected backend disabled without base URL")
	}
}

func TestResolveRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ConfigVersion = "99"

	_, err := Resolve(cfg, RuntimeFlags{}, Environment{}, ResolveOptions{})
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) || resolveErr.Code != ResolveErrorCodeInvalidConfig {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestEnvironmentFromLookup(t *testing.T) {
	t.Parallel()

	values := map[string]string{
		EnvJiraAPIToken:    " token-123 ",
		EnvZephyrAccessKey: "ak",
		EnvZephyrSecretKey: "sk",
	}
	env := EnvironmentFromLookup(func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	})

	if env.JiraAPIToken != "token-123" {
		t.Fatalf("expected trimmed token, got %q", env.JiraAPIToken)
	}
	if env.ZephyrAccessKey != "ak" || env.ZephyrSecretKey != "sk" {
		t.Fatalf("unexpected zephyr env %+v", env)
	}
	if env.JiraBaseURL != "" {
		t.Fatalf("expected unset vars to stay empty, got %q", env.JiraBaseURL)
	}
}
