package appmodel

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/provisioner"
	"github.com/architect-io/stackhost/pkg/stack"
)

// appFile is the YAML application definition.
type appFile struct {
	Name     string        `yaml:"name"`
	Stacks   []stackFile   `yaml:"stacks"`
	Services []serviceFile `yaml:"services"`
}

type stackFile struct {
	Name    string            `yaml:"name"`
	Source  string            `yaml:"source"`
	Config  map[string]string `yaml:"config"`
	Secrets map[string]string `yaml:"secrets"`
}

type serviceFile struct {
	Name  string            `yaml:"name"`
	Image string            `yaml:"image"`
	Env   map[string]string `yaml:"env"`
}

// outputRefPattern matches environment values that are exactly one stack
// output placeholder, e.g. "{dev.outputs.BlobEndpoint}".
var outputRefPattern = regexp.MustCompile(`^\{([A-Za-z0-9_-]+)\.outputs\.([A-Za-z0-9_.-]+)\}$`)

// SecretResolver expands secret references embedded in stack secret values.
type SecretResolver func(string) (string, error)

type loadOptions struct {
	resolveSecret SecretResolver
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithSecretResolver passes stack secret values through the given resolver
// before they reach the model.
func WithSecretResolver(r SecretResolver) LoadOption {
	return func(o *loadOptions) {
		o.resolveSecret = r
	}
}

// Load reads an application definition file and builds the model. Stacks
// are added in file order before services, so orchestration sees them in
// declaration order and services can reference their outputs.
func Load(path string, opts ...LoadOption) (*Model, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read application definition: %w", err)
	}

	var file appFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ParseError(path, err)
	}

	if file.Name == "" {
		return nil, errors.ValidationError("application definition is missing a name", map[string]interface{}{"file": path})
	}

	model := New(file.Name)
	stacks := make(map[string]*stack.Resource, len(file.Stacks))

	for _, sf := range file.Stacks {
		if sf.Name == "" {
			return nil, errors.ValidationError("stack definition is missing a name", map[string]interface{}{"file": path})
		}
		if sf.Source == "" {
			return nil, errors.ValidationError(
				"stack definition is missing a program source",
				map[string]interface{}{"file": path, "stack": sf.Name},
			)
		}

		secretValues := sf.Secrets
		if options.resolveSecret != nil && len(secretValues) > 0 {
			resolved := make(map[string]string, len(secretValues))
			for k, v := range secretValues {
				rv, err := options.resolveSecret(v)
				if err != nil {
					return nil, fmt.Errorf("stack %q secret %q: %w", sf.Name, k, err)
				}
				resolved[k] = rv
			}
			secretValues = resolved
		}

		var stackOpts []stack.Option
		if fn := configureFromFile(sf.Config, secretValues); fn != nil {
			stackOpts = append(stackOpts, stack.WithConfigure(fn))
		}

		res := stack.NewResource(sf.Name, provisioner.Program{Source: sf.Source}, stackOpts...)
		if err := model.Add(res); err != nil {
			return nil, err
		}
		stacks[sf.Name] = res
	}

	for _, svcf := range file.Services {
		if svcf.Name == "" {
			return nil, errors.ValidationError("service definition is missing a name", map[string]interface{}{"file": path})
		}

		svc := NewService(svcf.Name, svcf.Image)
		for name, raw := range svcf.Env {
			val, err := parseEnvValue(raw, stacks)
			if err != nil {
				return nil, fmt.Errorf("service %q env %q: %w", svcf.Name, name, err)
			}
			svc.SetEnv(name, val)
		}

		if err := model.Add(svc); err != nil {
			return nil, err
		}
	}

	return model, nil
}

// configureFromFile builds a configure callback from the file's config and
// secrets maps. Returns nil when both are empty.
func configureFromFile(plain, secrets map[string]string) config.ConfigureFunc {
	if len(plain) == 0 && len(secrets) == 0 {
		return nil
	}

	// Copy so later mutation of the parsed file cannot leak into the model.
	plainCopy := make(map[string]string, len(plain))
	for k, v := range plain {
		plainCopy[k] = v
	}
	secretCopy := make(map[string]string, len(secrets))
	for k, v := range secrets {
		secretCopy[k] = v
	}

	return func(m config.Map) {
		for k, v := range plainCopy {
			m[k] = config.Plain(v)
		}
		for k, v := range secretCopy {
			m[k] = config.Secret(v)
		}
	}
}

// parseEnvValue interprets a raw environment value: an exact output
// placeholder becomes a deferred output reference, anything else a literal.
func parseEnvValue(raw string, stacks map[string]*stack.Resource) (EnvValue, error) {
	match := outputRefPattern.FindStringSubmatch(raw)
	if match == nil {
		return Literal(raw), nil
	}

	stackName, outputName := match[1], match[2]
	res, ok := stacks[stackName]
	if !ok {
		return nil, errors.NotFoundError("stack", stackName)
	}
	return res.Output(outputName), nil
}
