// Package provisioner defines the provisioning backend contract used by the
// lifecycle orchestrator, plus the registry backends register into.
package provisioner

import (
	"context"

	"github.com/architect-io/stackhost/pkg/config"
)

// OutputValue is a named output produced by applying a stack program. The
// value may be structured (nested JSON-like data); stackhost treats it as
// opaque.
type OutputValue struct {
	Value  interface{}
	Secret bool
}

// Program is the opaque provisioning program of one stack. Exactly one of
// the fields is set: CLI-driven backends execute the program at Source,
// in-process backends call Run.
type Program struct {
	// Source is the on-disk path of the program for CLI-driven backends.
	Source string

	// Run executes the program in-process against the given configuration
	// and returns the stack's outputs.
	Run func(ctx context.Context, cfg map[string]string) (map[string]OutputValue, error)
}

// UpResult contains the result of applying a stack.
type UpResult struct {
	Outputs map[string]OutputValue
}

// Workspace is a backend workspace bound to one stack.
type Workspace interface {
	// SetAllConfig pushes the stack's configuration, keyed by stack name.
	SetAllConfig(ctx context.Context, stackName string, cfg config.Map) error

	// Up applies the stack's program and returns its outputs.
	Up(ctx context.Context) (*UpResult, error)
}

// Backend provisions stacks. Implementations are registered by name and
// selected by the composition root.
type Backend interface {
	// Name returns the backend identifier (e.g., "pulumi", "inproc")
	Name() string

	// CreateOrSelect creates the workspace identified by application and
	// stack name, or selects it if it already exists.
	CreateOrSelect(ctx context.Context, appName, stackName string, program Program) (Workspace, error)
}
