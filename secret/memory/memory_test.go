package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FromEnvironment(t *testing.T) {
	t.Setenv("FERRET_SECRET_JIRA_API_TOKEN", "tok-123")
	t.Setenv("FERRET_SECRET_GEMINI_API_KEY", "key-456")
	t.Setenv("UNRELATED", "nope")

	s := FromEnvironment("FERRET_SECRET_")

	env, err := s.GetSecretsForTarget("acme")
	assert.NoError(t, err)
	assert.Equal(t, "tok-123", env["JIRA_API_TOKEN"])
	assert.Equal(t, "key-456", env["GEMINI_API_KEY"])
	assert.NotContains(t, env, "UNRELATED")
}
