// Package manifest produces the publish-mode description of the
// application topology. Output references serialize as symbolic
// placeholder expressions resolved by a downstream templating step.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/architect-io/stackhost/pkg/appmodel"
	"github.com/architect-io/stackhost/pkg/host"
	"github.com/architect-io/stackhost/pkg/stack"
)

// StackType is the manifest type written for infrastructure stacks.
const StackType = "pulimistack.v0"

// ContainerType is the manifest type written for container services.
const ContainerType = "container.v0"

// Entry is one resource's manifest contribution.
type Entry struct {
	Type    string            `json:"type"`
	Program string            `json:"program,omitempty"`
	Image   string            `json:"image,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Manifest is the serialized application topology.
type Manifest struct {
	App       string           `json:"app"`
	Resources map[string]Entry `json:"resources"`
}

// Build produces the manifest for a model. It requires a publish execution
// context; building a manifest during a live run would force output reads
// on unprovisioned stacks.
func Build(ectx *host.ExecutionContext, model *appmodel.Model) (*Manifest, error) {
	if !ectx.IsPublish() {
		return nil, fmt.Errorf("manifest can only be built in publish mode (got %q)", ectx.Operation())
	}

	m := &Manifest{
		App:       model.Name(),
		Resources: make(map[string]Entry, len(model.Resources())),
	}

	for _, res := range model.Resources() {
		switch r := res.(type) {
		case *stack.Resource:
			m.Resources[r.ResourceName()] = Entry{
				Type:    StackType,
				Program: r.Program().Source,
			}

		case *appmodel.Service:
			env, err := r.MaterializeEnv(ectx)
			if err != nil {
				return nil, fmt.Errorf("failed to materialize env for service %q: %w", r.ResourceName(), err)
			}
			m.Resources[r.ResourceName()] = Entry{
				Type:  ContainerType,
				Image: r.Image(),
				Env:   env,
			}

		default:
			m.Resources[res.ResourceName()] = Entry{
				Type: res.ResourceKind(),
			}
		}
	}

	return m, nil
}

// Write serializes a manifest as indented JSON. Map keys marshal in sorted
// order, so output is deterministic.
func Write(w io.Writer, m *Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
