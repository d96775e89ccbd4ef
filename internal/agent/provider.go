// Package agent invokes external agent CLIs and captures their replies.
//
// Both orchestration roles are served by the same machinery: the fast
// "loop" planner and the stronger "worker" implementer are just two
// Profiles, usually pointing at the same CLI with different models.
package agent

import (
	"fmt"
	"strings"
)

// Provider identifies a supported agent CLI family.
type Provider string

const (
	// ProviderCodex is the codex CLI (`codex exec --model <m> <prompt>`).
	ProviderCodex Provider = "codex"
	// ProviderOpencode is the opencode CLI (`opencode run --model <m> <prompt>`).
	ProviderOpencode Provider = "opencode"
	// ProviderCustom is any other CLI; the user supplies command and args.
	ProviderCustom Provider = "custom"
)

// ErrUnknownProvider is returned when the configured provider is unsupported.
var ErrUnknownProvider = fmt.Errorf("unknown agent provider")

// ParseProvider validates a provider string from configuration.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(s)) {
	case ProviderCodex:
		return ProviderCodex, nil
	case ProviderOpencode:
		return ProviderOpencode, nil
	case ProviderCustom:
		return ProviderCustom, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, s)
	}
}

// ValidProviders returns the list of accepted provider strings.
func ValidProviders() []string {
	return []string{string(ProviderCodex), string(ProviderOpencode), string(ProviderCustom)}
}

// DefaultCommand returns the conventional binary name for a provider.
// Custom providers have no default; the user supplies one.
func DefaultCommand(p Provider) string {
	switch p {
	case ProviderCodex:
		return "codex"
	case ProviderOpencode:
		return "opencode"
	default:
		return ""
	}
}

// DefaultArgs returns the conventional argument template for a provider.
// Templates may reference {model}, {prompt}, and {prompt_file}; see
// RenderArgs.
func DefaultArgs(p Provider) []string {
	switch p {
	case ProviderCodex:
		return []string{"exec", "--model", "{model}", "{prompt}"}
	case ProviderOpencode:
		return []string{"run", "--model", "{model}", "{prompt}"}
	default:
		return nil
	}
}
