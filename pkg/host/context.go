// Package host defines the execution context shared by every component
// that must behave differently between a live run and a publish pass.
package host

// Operation identifies what the application host was started to do.
type Operation string

const (
	// OperationRun performs live provisioning and starts dependents
	// once infrastructure outputs are available.
	OperationRun Operation = "run"

	// OperationPublish produces a static manifest of the application
	// topology without touching real infrastructure.
	OperationPublish Operation = "publish"
)

// ExecutionContext carries the operation for one host invocation. It is
// decided once at startup by the composition root and passed through to
// every mode-dependent call site, so the orchestrator and the environment
// binding glue always agree on the mode within a single pass.
type ExecutionContext struct {
	operation Operation
}

// NewExecutionContext creates an execution context for the given operation.
func NewExecutionContext(op Operation) *ExecutionContext {
	return &ExecutionContext{operation: op}
}

// Operation returns the operation this context was created for.
func (c *ExecutionContext) Operation() Operation {
	return c.operation
}

// IsRun reports whether the host is performing live provisioning.
func (c *ExecutionContext) IsRun() bool {
	return c.operation == OperationRun
}

// IsPublish reports whether the host is producing a manifest.
func (c *ExecutionContext) IsPublish() bool {
	return c.operation == OperationPublish
}
