// pattern: Functional Core
package contracts

import (
	"fmt"
	"strings"
)

const (
	// ConfigFilePath is the canonical config location under the work dir.
	ConfigFilePath = ".testgenie/config.json"

	// ConfigSchemaVersionV1 is the current supported config schema version.
	ConfigSchemaVersionV1 = "1"
)

// SupportedConfigSchemaVersions is ordered for deterministic mismatch messaging.
var SupportedConfigSchemaVersions = []string{ConfigSchemaVersionV1}

// Config models .testgenie/config.json. Secrets (API token, access/secret
// keys) are env-only by contract and never appear in the file.
type Config struct {
	ConfigVersion string       `json:"config_version"`
	Jira          JiraConfig   `json:"jira"`
	Zephyr        ZephyrConfig `json:"zephyr,omitempty"`
}

// JiraConfig contains non-secret issue-tracker defaults.
type JiraConfig struct {
	BaseURL       string `json:"base_url,omitempty"`
	Email         string `json:"email,omitempty"`
	ProjectKey    string `json:"project_key,omitempty"`
	ProjectID     string `json:"project_id,omitempty"`
	SprintFieldID string `json:"sprint_field_id,omitempty"`
}

// ZephyrConfig contains non-secret test-execution defaults. When the base
// URL (or the env-only credentials) are absent, the stub test-execution
// backend is selected instead of failing construction.
type ZephyrConfig struct {
	BaseURL   string `json:"base_url,omitempty"`
	AccountID string `json:"account_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
}

// ConfigErrorCode classifies typed config contract failures.
type ConfigErrorCode string

const (
	ConfigErrorCodeVersionMismatch  ConfigErrorCode = "config_version_mismatch"
	ConfigErrorCodeValidationFailed ConfigErrorCode = "config_validation_failed"
)

// ConfigContractError is implemented by all typed config contract errors.
type ConfigContractError interface {
	error
	ConfigErrorCode() ConfigErrorCode
}

type ConfigVersionError struct {
	Found string
}

func (err *ConfigVersionError) Error() string {
	return fmt.Sprintf(
		"unsupported config_version %q (supported: %s)",
		err.Found,
		strings.Join(SupportedConfigSchemaVersions, ", "),
	)
}

func (err *ConfigVersionError) ConfigErrorCode() ConfigErrorCode {
	return ConfigErrorCodeVersionMismatch
}

type ConfigValidationError struct {
	Field   string
	Message string
}

func (err *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", err.Field, err.Message)
}

func (err *ConfigValidationError) ConfigErrorCode() ConfigErrorCode {
	return ConfigErrorCodeValidationFailed
}

// ValidateConfig enforces the config schema contract.
func ValidateConfig(config Config) error {
	version := strings.TrimSpace(config.ConfigVersion)
	supported := false
	for _, candidate := range SupportedConfigSchemaVersions {
		if candidate == version {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigVersionError{Found: config.ConfigVersion}
	}

	if baseURL := strings.TrimSpace(config.Jira.BaseURL); baseURL != "" {
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			return &ConfigValidationError{
				Field:   "jira.base_url",
				Message: "must include an http or https scheme",
			}
		}
	}

	if key := strings.TrimSpace(config.Jira.ProjectKey); key != "" {
		if strings.ToUpper(key) != key {
			return &ConfigValidationError{
				Field:   "jira.project_key",
				Message: "must be uppercase",
			}
		}
	}

	return nil
}
