package manifest

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/stackhost/pkg/appmodel"
	"github.com/architect-io/stackhost/pkg/host"
	"github.com/architect-io/stackhost/pkg/provisioner"
	"github.com/architect-io/stackhost/pkg/stack"
)

func publishModel(t *testing.T) *appmodel.Model {
	t.Helper()
	model := appmodel.New("shop")

	dev := stack.NewResource("dev", provisioner.Program{Source: "./infra/dev"})
	require.NoError(t, model.Add(dev))

	api := appmodel.NewService("api", "example/api:1")
	api.SetEnv("BLOB_URL", dev.Output("BlobEndpoint"))
	api.SetEnv("LOG_LEVEL", appmodel.Literal("info"))
	require.NoError(t, model.Add(api))

	return model
}

func TestBuild(t *testing.T) {
	model := publishModel(t)

	m, err := Build(host.NewExecutionContext(host.OperationPublish), model)
	require.NoError(t, err)
	assert.Equal(t, "shop", m.App)

	devEntry := m.Resources["dev"]
	assert.Equal(t, "pulimistack.v0", devEntry.Type)
	assert.Equal(t, "./infra/dev", devEntry.Program)

	apiEntry := m.Resources["api"]
	assert.Equal(t, "container.v0", apiEntry.Type)
	assert.Equal(t, "example/api:1", apiEntry.Image)
	assert.Equal(t, map[string]string{
		"BLOB_URL":  "{dev.outputs.BlobEndpoint}",
		"LOG_LEVEL": "info",
	}, apiEntry.Env)
}

func TestBuild_RejectsRunMode(t *testing.T) {
	model := publishModel(t)

	_, err := Build(host.NewExecutionContext(host.OperationRun), model)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish mode")
}

func TestBuild_NeverProvisions(t *testing.T) {
	model := publishModel(t)

	_, err := Build(host.NewExecutionContext(host.OperationPublish), model)
	require.NoError(t, err)

	dev := model.Get("dev").(*stack.Resource)
	assert.False(t, dev.Provisioned(), "building a manifest must not touch stack state")
}

func TestWrite(t *testing.T) {
	model := publishModel(t)
	m, err := Build(host.NewExecutionContext(host.OperationPublish), model)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))

	var decoded Manifest
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, m.App, decoded.App)
	assert.Equal(t, m.Resources["api"].Env, decoded.Resources["api"].Env)

	// Deterministic serialization: two writes produce identical bytes.
	var again bytes.Buffer
	require.NoError(t, Write(&again, m))
	assert.Equal(t, buf.String(), again.String())
}
