package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/architect-io/stackhost/pkg/appmodel"
	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/envfile"
	"github.com/architect-io/stackhost/pkg/host"
	"github.com/architect-io/stackhost/pkg/orchestrator"
	"github.com/architect-io/stackhost/pkg/provisioner"
	"github.com/architect-io/stackhost/pkg/secrets"
	"github.com/architect-io/stackhost/pkg/state"
	"github.com/architect-io/stackhost/pkg/state/backend"
)

func newRunCmd() *cobra.Command {
	var (
		file         string
		environment  string
		backendName  string
		stateBackend string
		stateConfig  []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision infrastructure stacks and resolve service environments",
		Long: `Run provisions every infrastructure stack declared in the application
definition, in declaration order, then resolves each service's environment
against the live stack outputs.

External per-stack configuration is read from the pulumi.stacks.<name>
section of the stackhost config file and merged under any configuration the
definition sets explicitly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			model, err := appmodel.Load(file, appmodel.WithSecretResolver(secretResolver(cmd)))
			if err != nil {
				return err
			}

			if err := applyEnvFileDefaults(model, filepath.Dir(file), environment); err != nil {
				return err
			}

			be, err := provisioner.Create(backendName)
			if err != nil {
				return err
			}

			settings, err := parseKeyValues(stateConfig)
			if err != nil {
				return fmt.Errorf("invalid --state-config: %w", err)
			}
			store, err := state.NewStoreFromConfig(backend.Config{
				Type:     stateBackend,
				Settings: settings,
			})
			if err != nil {
				return err
			}

			// Interrupts cancel the in-flight provisioning call and skip
			// the remaining stacks.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ectx := host.NewExecutionContext(host.OperationRun)
			orch := orchestrator.New(be,
				orchestrator.WithConfigSource(config.NewViperSource(viper.GetViper())),
				orchestrator.WithSnapshotStore(store),
				orchestrator.WithLogger(logger),
			)

			if err := orch.RunBeforeStart(ctx, ectx, model); err != nil {
				return err
			}

			return printServiceEnvironments(cmd, ectx, model)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "stackhost.yaml", "Application definition file")
	cmd.Flags().StringVar(&environment, "env", "", "Environment name for the .env file chain")
	cmd.Flags().StringVar(&backendName, "provisioner", "pulumi", "Provisioner backend (pulumi, inproc)")
	cmd.Flags().StringVar(&stateBackend, "state-backend", "local", "Snapshot backend type (local, s3)")
	cmd.Flags().StringArrayVar(&stateConfig, "state-config", nil, "Snapshot backend configuration (key=value)")

	return cmd
}

// secretResolver adapts the default secrets manager to the loader's
// resolver signature.
func secretResolver(cmd *cobra.Command) appmodel.SecretResolver {
	mgr := secrets.DefaultManager()
	return func(s string) (string, error) {
		return mgr.ResolveString(cmd.Context(), s)
	}
}

// applyEnvFileDefaults loads the .env file chain next to the application
// definition and adds each variable as a literal env default on every
// service. Bindings from the definition win.
func applyEnvFileDefaults(model *appmodel.Model, dir, environment string) error {
	vars, err := envfile.Load(dir, environment)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		return nil
	}

	for _, res := range model.Resources() {
		svc, ok := res.(*appmodel.Service)
		if !ok {
			continue
		}
		for name, value := range vars {
			if _, bound := svc.Env()[name]; bound {
				continue
			}
			svc.SetEnv(name, appmodel.Literal(value))
		}
	}
	return nil
}

// printServiceEnvironments materializes and prints each service's resolved
// environment.
func printServiceEnvironments(cmd *cobra.Command, ectx *host.ExecutionContext, model *appmodel.Model) error {
	out := cmd.OutOrStdout()

	for _, res := range model.Resources() {
		svc, ok := res.(*appmodel.Service)
		if !ok {
			continue
		}

		env, err := svc.MaterializeEnv(ectx)
		if err != nil {
			return fmt.Errorf("failed to resolve environment for service %q: %w", svc.ResourceName(), err)
		}

		fmt.Fprintf(out, "\nService: %s\n", svc.ResourceName())
		if svc.Image() != "" {
			fmt.Fprintf(out, "  Image: %s\n", svc.Image())
		}

		names := make([]string, 0, len(env))
		for name := range env {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s=%s\n", name, env[name])
		}
	}

	return nil
}
