// Package cli implements the stackhost CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/architect-io/stackhost/internal/logging"

	// Import provisioner backends to register them via init()
	_ "github.com/architect-io/stackhost/pkg/provisioner/inproc"
	_ "github.com/architect-io/stackhost/pkg/provisioner/pulumi"

	// Import state backends to register them via init()
	_ "github.com/architect-io/stackhost/pkg/state/backend/local"
	_ "github.com/architect-io/stackhost/pkg/state/backend/s3"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stackhost",
	Short: "Run applications with their infrastructure stacks",
	Long: `stackhost is an application host that provisions the infrastructure
stacks an application depends on before its services start, and publishes
deployment manifests that describe where stack outputs will later resolve.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stackhost/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	viper.SetEnvPrefix("STACKHOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Add subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.stackhost")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Read config file if it exists
	_ = viper.ReadInConfig()
}

// newLogger builds the logger shared by the commands.
func newLogger() *slog.Logger {
	return logging.NewLogger(os.Stderr, logging.ParseLevel(logLevel))
}

// parseKeyValues parses repeated key=value flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		out[key] = value
	}
	return out, nil
}
