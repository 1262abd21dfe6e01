// Package orchestrator provisions every infrastructure stack in the
// application model before dependent resources start.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/architect-io/stackhost/pkg/appmodel"
	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/host"
	"github.com/architect-io/stackhost/pkg/names"
	"github.com/architect-io/stackhost/pkg/provisioner"
	"github.com/architect-io/stackhost/pkg/stack"
	"github.com/architect-io/stackhost/pkg/state"
)

// Orchestrator runs the stack lifecycle once per application start.
type Orchestrator struct {
	backend provisioner.Backend
	source  config.Source
	store   *state.Store
	logger  *slog.Logger
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithConfigSource sets the external configuration source consulted for
// per-stack configuration sections.
func WithConfigSource(src config.Source) Option {
	return func(o *Orchestrator) {
		o.source = src
	}
}

// WithSnapshotStore sets the store that records stack outputs after each
// successful apply.
func WithSnapshotStore(store *state.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an orchestrator that provisions through the given backend.
func New(backend provisioner.Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunBeforeStart provisions every stack resource in the model, in
// declaration order, and populates each stack's output set. In publish
// mode it returns immediately without touching the backend: publishing
// must be side-effect-free.
//
// Stacks are provisioned strictly sequentially. The first failure aborts
// the run; stacks declared after it are not provisioned and no rollback of
// already-applied stacks is attempted.
func (o *Orchestrator) RunBeforeStart(ctx context.Context, ectx *host.ExecutionContext, model *appmodel.Model) error {
	if ectx.IsPublish() {
		o.logger.Debug("publish mode, skipping stack provisioning", "app", model.Name())
		return nil
	}

	runID := uuid.New().String()
	logger := o.logger.With("app", model.Name(), "run", names.Generate(model.Name(), runID))
	logger.Info("starting stack orchestration", "run_id", runID)

	for _, res := range model.Resources() {
		s, ok := res.(*stack.Resource)
		if !ok {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := o.provision(ctx, logger, model.Name(), s); err != nil {
			return err
		}
	}

	return nil
}

// provision runs one stack through create-or-select, configure, and apply,
// then stores the resulting outputs on the resource.
func (o *Orchestrator) provision(ctx context.Context, logger *slog.Logger, appName string, s *stack.Resource) error {
	name := s.ResourceName()
	logger.Info("provisioning stack", "stack", name, "backend", o.backend.Name())

	ws, err := o.backend.CreateOrSelect(ctx, appName, name, s.Program())
	if err != nil {
		return errors.ProvisioningError(name, "create-or-select", err)
	}

	cfg := config.Map{}
	if configure := config.Resolve(o.source, name, s.Configure()); configure != nil {
		configure(cfg)
	}

	if err := ws.SetAllConfig(ctx, name, cfg); err != nil {
		return errors.ProvisioningError(name, "config push", err)
	}

	result, err := ws.Up(ctx)
	if err != nil {
		return errors.ProvisioningError(name, "apply", err)
	}

	if err := s.SetOutputs(result.Outputs); err != nil {
		return err
	}
	logger.Info("stack provisioned", "stack", name, "outputs", len(result.Outputs))

	if o.store != nil {
		snap := state.NewStackSnapshot(appName, name, result.Outputs)
		if err := o.store.Save(ctx, snap); err != nil {
			// Snapshots are diagnostic; a failed write must not abort startup.
			logger.Warn("failed to record stack snapshot", "stack", name, "error", err)
		}
	}

	return nil
}
