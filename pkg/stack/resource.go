// Package stack provides the declarative infrastructure-stack resource and
// deferred references to its outputs.
package stack

import (
	"reflect"
	"sync"

	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/provisioner"
)

// Kind is the model kind reported by stack resources.
const Kind = "stack"

// Resource is one named infrastructure stack in the application model. Its
// output set is absent until the orchestrator populates it after a
// successful apply; the write is guarded so the set is write-once per
// process run and safely visible to any number of readers afterward.
type Resource struct {
	name      string
	program   provisioner.Program
	configure config.ConfigureFunc

	mu      sync.RWMutex
	outputs map[string]provisioner.OutputValue
}

// Option configures a stack resource at construction time.
type Option func(*Resource)

// WithConfigure sets the programmatic configure callback invoked against
// the stack's configuration map before provisioning.
func WithConfigure(fn config.ConfigureFunc) Option {
	return func(r *Resource) {
		r.configure = fn
	}
}

// NewResource creates a stack resource with the given name and program.
func NewResource(name string, program provisioner.Program, opts ...Option) *Resource {
	r := &Resource{
		name:    name,
		program: program,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResourceName returns the stack's unique name within the application model.
func (r *Resource) ResourceName() string {
	return r.name
}

// ResourceKind returns the model kind for stack resources.
func (r *Resource) ResourceKind() string {
	return Kind
}

// Program returns the stack's provisioning program.
func (r *Resource) Program() provisioner.Program {
	return r.program
}

// Configure returns the programmatic configure callback, which may be nil.
func (r *Resource) Configure() config.ConfigureFunc {
	return r.configure
}

// SetOutputs populates the stack's output set. The set is write-once:
// setting identical outputs again is a no-op, setting different outputs is
// an error without explicit re-run semantics.
func (r *Resource) SetOutputs(outputs map[string]provisioner.OutputValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.outputs != nil {
		if reflect.DeepEqual(r.outputs, outputs) {
			return nil
		}
		return errors.ValidationError(
			"stack outputs are already populated and cannot be overwritten",
			map[string]interface{}{"stack": r.name},
		)
	}

	copied := make(map[string]provisioner.OutputValue, len(outputs))
	for k, v := range outputs {
		copied[k] = v
	}
	r.outputs = copied
	return nil
}

// Outputs returns the stack's output set, or OUTPUTS_UNAVAILABLE if
// provisioning has not completed.
func (r *Resource) Outputs() (map[string]provisioner.OutputValue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.outputs == nil {
		return nil, errors.OutputsUnavailable(r.name)
	}

	outputs := make(map[string]provisioner.OutputValue, len(r.outputs))
	for k, v := range r.outputs {
		outputs[k] = v
	}
	return outputs, nil
}

// Provisioned reports whether the output set has been populated.
func (r *Resource) Provisioned() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outputs != nil
}

// Output returns a deferred reference to the named output. The reference
// is valid before provisioning; reading its value is not.
func (r *Resource) Output(name string) *OutputRef {
	return &OutputRef{stack: r, name: name}
}
