package stack

import (
	"fmt"

	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/host"
)

// OutputRef is a deferred handle to a single named output of a stack. It
// holds only identity (output name plus a back-reference to the stack) and
// reads the output set lazily, because consumers are constructed before
// provisioning happens.
type OutputRef struct {
	stack *Resource
	name  string
}

// Name returns the referenced output name.
func (ref *OutputRef) Name() string {
	return ref.name
}

// Stack returns the stack the reference reads from.
func (ref *OutputRef) Stack() *Resource {
	return ref.stack
}

// Value returns the concrete output value. It fails with
// OUTPUTS_UNAVAILABLE before the stack completes provisioning and with
// UNKNOWN_OUTPUT when the name is absent from the completed output set.
func (ref *OutputRef) Value() (interface{}, error) {
	outputs, err := ref.stack.Outputs()
	if err != nil {
		return nil, err
	}

	out, ok := outputs[ref.name]
	if !ok {
		return nil, errors.UnknownOutput(ref.stack.ResourceName(), ref.name)
	}
	return out.Value, nil
}

// Expression returns the symbolic placeholder for this output, resolved by
// a downstream templating step at deploy time. It is computable regardless
// of provisioning state.
func (ref *OutputRef) Expression() string {
	return fmt.Sprintf("{%s.outputs.%s}", ref.stack.ResourceName(), ref.name)
}

// Resolve implements environment binding for output references: the
// symbolic expression in publish mode, the stringified concrete value in
// run mode.
func (ref *OutputRef) Resolve(ectx *host.ExecutionContext) (string, error) {
	if ectx.IsPublish() {
		return ref.Expression(), nil
	}

	val, err := ref.Value()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", val), nil
}
