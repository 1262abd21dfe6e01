package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/architect-io/stackhost/pkg/appmodel"
	"github.com/architect-io/stackhost/pkg/host"
	"github.com/architect-io/stackhost/pkg/manifest"
)

func newPublishCmd() *cobra.Command {
	var (
		file   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the application manifest without provisioning",
		Long: `Publish produces a static manifest of the application topology. No
provisioning backend is touched; stack outputs appear as symbolic
placeholder expressions of the form {<stack>.outputs.<name>}, resolved by
the deployment tooling that consumes the manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := appmodel.Load(file)
			if err != nil {
				return err
			}

			ectx := host.NewExecutionContext(host.OperationPublish)
			m, err := manifest.Build(ectx, model)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create manifest file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := manifest.Write(w, m); err != nil {
				return err
			}

			if output != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote manifest for %q to %s\n", model.Name(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "stackhost.yaml", "Application definition file")
	cmd.Flags().StringVarP(&output, "output", "o", "manifest.json", "Manifest output path (- for stdout)")

	return cmd
}
