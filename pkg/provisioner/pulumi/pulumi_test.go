package pulumi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackInList(t *testing.T) {
	listing := `[{"name":"org/dev","current":true},{"name":"staging","current":false}]`

	assert.True(t, stackInList(listing, "staging"))
	assert.True(t, stackInList(listing, "dev"), "org-qualified names match on suffix")
	assert.False(t, stackInList(listing, "prod"))
	assert.False(t, stackInList("not json", "dev"))
}

func TestConfigSetArgs(t *testing.T) {
	t.Run("plaintext", func(t *testing.T) {
		assert.Equal(t,
			[]string{"config", "set", "--stack", "dev", "--non-interactive", "--plaintext", "region"},
			configSetArgs("dev", "region", false),
		)
	})

	t.Run("secret", func(t *testing.T) {
		assert.Equal(t,
			[]string{"config", "set", "--stack", "dev", "--non-interactive", "--secret", "token"},
			configSetArgs("dev", "token", true),
		)
	})
}

func TestParseOutputs(t *testing.T) {
	masked := `{"BlobEndpoint":"https://x","AccessKey":"[secret]"}`
	revealed := `{"BlobEndpoint":"https://x","AccessKey":"hunter2"}`

	outputs, err := parseOutputs(masked, revealed)
	require.NoError(t, err)

	assert.Equal(t, "https://x", outputs["BlobEndpoint"].Value)
	assert.False(t, outputs["BlobEndpoint"].Secret)

	assert.Equal(t, "hunter2", outputs["AccessKey"].Value)
	assert.True(t, outputs["AccessKey"].Secret)
}

func TestParseOutputs_NonStringValues(t *testing.T) {
	masked := `{"replicas":3,"tags":["a","b"]}`
	revealed := `{"replicas":3,"tags":["a","b"]}`

	outputs, err := parseOutputs(masked, revealed)
	require.NoError(t, err)
	assert.Equal(t, float64(3), outputs["replicas"].Value)
	assert.False(t, outputs["replicas"].Secret)
}

func TestParseOutputs_InvalidJSON(t *testing.T) {
	_, err := parseOutputs("nope", `{}`)
	assert.Error(t, err)
}

func TestHasEnv(t *testing.T) {
	env := []string{"HOME=/root", "PULUMI_BACKEND_URL=s3://bucket"}

	assert.True(t, hasEnv(env, "PULUMI_BACKEND_URL"))
	assert.False(t, hasEnv(env, "PULUMI_ACCESS_TOKEN"))
	assert.False(t, hasEnv([]string{"PULUMI_BACKEND_URLX=y"}, "PULUMI_BACKEND_URL"))
}
