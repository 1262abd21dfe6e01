// Package appmodel provides the declarative application model: an ordered
// collection of named resources plus the environment-binding glue that
// connects dependent resources to infrastructure outputs.
package appmodel

import (
	"sort"

	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/host"
)

// Resource is a node in the application model.
type Resource interface {
	// ResourceName returns the resource's unique name within the model.
	ResourceName() string

	// ResourceKind returns the resource kind (e.g., "stack", "service").
	ResourceKind() string
}

// EnvValue produces the value of one environment variable when the
// dependent resource's environment is materialized. Implementations must
// defer any output reads until then; at model-construction time outputs do
// not exist yet.
type EnvValue interface {
	Resolve(ectx *host.ExecutionContext) (string, error)
}

// Literal is a fixed environment value, identical in both execution modes.
type Literal string

func (l Literal) Resolve(*host.ExecutionContext) (string, error) {
	return string(l), nil
}

// ServiceKind is the model kind reported by service resources.
const ServiceKind = "service"

// Service is a dependent application resource: a workload that starts after
// orchestration and consumes infrastructure outputs through its environment.
type Service struct {
	name  string
	image string
	env   map[string]EnvValue
}

// NewService creates a service resource.
func NewService(name, image string) *Service {
	return &Service{
		name:  name,
		image: image,
		env:   make(map[string]EnvValue),
	}
}

func (s *Service) ResourceName() string {
	return s.name
}

func (s *Service) ResourceKind() string {
	return ServiceKind
}

// Image returns the service's container image reference.
func (s *Service) Image() string {
	return s.image
}

// SetEnv binds an environment variable to a value. Binding an output
// reference here is cheap; the reference is only read at materialization.
func (s *Service) SetEnv(name string, value EnvValue) {
	s.env[name] = value
}

// Env returns the service's environment bindings.
func (s *Service) Env() map[string]EnvValue {
	return s.env
}

// MaterializeEnv resolves every environment binding for the current
// execution mode. In run mode this must only be called after orchestration
// has populated stack outputs.
func (s *Service) MaterializeEnv(ectx *host.ExecutionContext) (map[string]string, error) {
	env := make(map[string]string, len(s.env))

	names := make([]string, 0, len(s.env))
	for name := range s.env {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, err := s.env[name].Resolve(ectx)
		if err != nil {
			return nil, err
		}
		env[name] = val
	}
	return env, nil
}

// Model is the ordered application model. Resources keep their declaration
// order; the orchestrator and the manifest writer both rely on it.
type Model struct {
	name      string
	resources []Resource
	byName    map[string]Resource
}

// New creates an empty application model with the given application name.
func New(name string) *Model {
	return &Model{
		name:   name,
		byName: make(map[string]Resource),
	}
}

// Name returns the application name.
func (m *Model) Name() string {
	return m.name
}

// Add appends a resource to the model. Resource names are unique within
// the model.
func (m *Model) Add(r Resource) error {
	if _, exists := m.byName[r.ResourceName()]; exists {
		return errors.ValidationError(
			"duplicate resource name in application model",
			map[string]interface{}{"name": r.ResourceName()},
		)
	}
	m.byName[r.ResourceName()] = r
	m.resources = append(m.resources, r)
	return nil
}

// Resources returns the model's resources in declaration order.
func (m *Model) Resources() []Resource {
	return m.resources
}

// Get returns the named resource, or nil when absent.
func (m *Model) Get(name string) Resource {
	return m.byName[name]
}
