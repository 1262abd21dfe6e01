// Package inproc implements a provisioning backend that executes stack
// programs in-process. It backs Go-defined stack programs and tests.
package inproc

import (
	"context"
	"fmt"

	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/provisioner"
)

func init() {
	provisioner.Register("inproc", func() (provisioner.Backend, error) {
		return NewBackend(), nil
	})
}

// Backend runs stack programs in-process.
type Backend struct{}

// NewBackend creates a new in-process backend.
func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string {
	return "inproc"
}

// CreateOrSelect returns a workspace for the stack. The program must carry
// an in-process Run function.
func (b *Backend) CreateOrSelect(ctx context.Context, appName, stackName string, program provisioner.Program) (provisioner.Workspace, error) {
	if program.Run == nil {
		return nil, fmt.Errorf("inproc backend requires an in-process program for stack %q", stackName)
	}

	return &workspace{
		appName:   appName,
		stackName: stackName,
		run:       program.Run,
		cfg:       make(map[string]string),
	}, nil
}

type workspace struct {
	appName   string
	stackName string
	run       func(ctx context.Context, cfg map[string]string) (map[string]provisioner.OutputValue, error)
	cfg       map[string]string
}

func (w *workspace) SetAllConfig(ctx context.Context, stackName string, cfg config.Map) error {
	for k, v := range cfg {
		w.cfg[k] = v.Value()
	}
	return nil
}

func (w *workspace) Up(ctx context.Context) (*provisioner.UpResult, error) {
	outputs, err := w.run(ctx, w.cfg)
	if err != nil {
		return nil, err
	}
	return &provisioner.UpResult{Outputs: outputs}, nil
}

var _ provisioner.Backend = (*Backend)(nil)
