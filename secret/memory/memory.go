package memory

import (
	"os"
	"strings"

	"github.com/ferretstack/ferret/secret"
)

// MemorySecrets implements a simple in-memory secret.Store, populated either
// directly (tests) or from prefixed environment variables.
type MemorySecrets struct {
	Secrets map[string]string
}

var _ secret.Store = &MemorySecrets{}

// FromEnvironment builds a store from all environment variables that carry
// the given prefix. The prefix is stripped from the resulting keys, so
// FERRET_SECRET_JIRA_API_TOKEN becomes JIRA_API_TOKEN.
func FromEnvironment(prefix string) *MemorySecrets {
	secrets := make(map[string]string)
	for _, kv := range os.Environ() {
		d := strings.IndexRune(kv, '=')
		k, v := kv[:d], kv[d+1:]
		if strings.HasPrefix(k, prefix) {
			secrets[strings.TrimPrefix(k, prefix)] = v
		}
	}
	return &MemorySecrets{Secrets: secrets}
}

// GetSecretsForTarget implements secret.Store
func (v *MemorySecrets) GetSecretsForTarget(name string) (map[string]string, error) {
	return v.Secrets, nil
}
