// Package pulumi implements a provisioning backend driving the Pulumi CLI.
package pulumi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/architect-io/stackhost/pkg/config"
	"github.com/architect-io/stackhost/pkg/provisioner"
)

func init() {
	provisioner.Register("pulumi", func() (provisioner.Backend, error) {
		return NewBackend()
	})
}

// Backend provisions stacks by shelling out to the pulumi binary.
type Backend struct {
	// pulumiPath is the path to the pulumi binary
	pulumiPath string
}

// NewBackend creates a new Pulumi backend instance.
func NewBackend() (*Backend, error) {
	// Find pulumi binary
	pulumiPath, err := exec.LookPath("pulumi")
	if err != nil {
		return nil, fmt.Errorf("pulumi binary not found: %w", err)
	}

	return &Backend{
		pulumiPath: pulumiPath,
	}, nil
}

func (b *Backend) Name() string {
	return "pulumi"
}

// CreateOrSelect ensures the stack exists in the program's workspace and
// selects it. The program must have an on-disk source; in-process programs
// belong to the inproc backend.
func (b *Backend) CreateOrSelect(ctx context.Context, appName, stackName string, program provisioner.Program) (provisioner.Workspace, error) {
	if program.Source == "" {
		return nil, fmt.Errorf("pulumi backend requires a program source directory for stack %q", stackName)
	}

	if _, err := os.Stat(program.Source); err != nil {
		return nil, fmt.Errorf("program source for stack %q not accessible: %w", stackName, err)
	}

	if err := b.ensureStack(ctx, program.Source, stackName); err != nil {
		return nil, fmt.Errorf("failed to ensure stack: %w", err)
	}

	return &workspace{
		backend:   b,
		workDir:   program.Source,
		stackName: stackName,
	}, nil
}

// ensureStack creates the stack if it does not exist, or selects it if it
// does.
func (b *Backend) ensureStack(ctx context.Context, workDir, stackName string) error {
	// Check if stack exists
	output, err := b.runPulumi(ctx, workDir, []string{"stack", "ls", "--json"})
	if err != nil {
		// Stack list failed, try to init
		_, err := b.runPulumi(ctx, workDir, []string{"stack", "init", stackName, "--non-interactive"})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return err
		}
		return nil
	}

	if stackInList(output, stackName) {
		// Stack exists, select it
		_, err := b.runPulumi(ctx, workDir, []string{"stack", "select", stackName})
		return err
	}

	// Stack doesn't exist, create it
	_, err = b.runPulumi(ctx, workDir, []string{"stack", "init", stackName, "--non-interactive"})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// stackInList parses `pulumi stack ls --json` output and reports whether
// the named stack is present.
func stackInList(output, stackName string) bool {
	var stacks []struct {
		Name    string `json:"name"`
		Current bool   `json:"current"`
	}
	if err := json.Unmarshal([]byte(output), &stacks); err != nil {
		return false
	}

	for _, s := range stacks {
		if s.Name == stackName || strings.HasSuffix(s.Name, "/"+stackName) {
			return true
		}
	}
	return false
}

func (b *Backend) runPulumi(ctx context.Context, workDir string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, b.pulumiPath, args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()

	// Use local backend by default if no backend is configured
	if !hasEnv(cmd.Env, "PULUMI_BACKEND_URL") {
		cmd.Env = append(cmd.Env, "PULUMI_BACKEND_URL=file://~/.pulumi")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, stderr.String())
	}

	return stdout.String(), nil
}

// workspace is a pulumi workspace bound to one stack of a program directory.
type workspace struct {
	backend   *Backend
	workDir   string
	stackName string
}

// SetAllConfig pushes each configuration entry with `pulumi config set`,
// using --secret for secret values so they are encrypted at rest and never
// echoed in cleartext.
func (w *workspace) SetAllConfig(ctx context.Context, stackName string, cfg config.Map) error {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := cfg[key]
		args := configSetArgs(stackName, key, val.IsSecret())
		cmd := exec.CommandContext(ctx, w.backend.pulumiPath, args...)
		cmd.Dir = w.workDir
		cmd.Env = os.Environ()
		if !hasEnv(cmd.Env, "PULUMI_BACKEND_URL") {
			cmd.Env = append(cmd.Env, "PULUMI_BACKEND_URL=file://~/.pulumi")
		}

		// The value goes in over stdin so secrets never appear in argv.
		cmd.Stdin = strings.NewReader(val.Value())

		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("failed to set config %q: %w: %s", key, err, stderr.String())
		}
	}

	return nil
}

// configSetArgs builds the argument list for one `pulumi config set` call.
func configSetArgs(stackName, key string, secret bool) []string {
	args := []string{"config", "set", "--stack", stackName, "--non-interactive"}
	if secret {
		args = append(args, "--secret")
	} else {
		args = append(args, "--plaintext")
	}
	return append(args, key)
}

// Up applies the stack and returns its outputs.
func (w *workspace) Up(ctx context.Context) (*provisioner.UpResult, error) {
	args := []string{
		"up",
		"--yes",
		"--stack", w.stackName,
		"--json",
		"--non-interactive",
	}

	output, err := w.backend.runPulumi(ctx, w.workDir, args)
	if err != nil {
		return nil, fmt.Errorf("pulumi up failed: %w\nOutput: %s", err, output)
	}

	outputs, err := w.getOutputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get outputs: %w", err)
	}

	return &provisioner.UpResult{Outputs: outputs}, nil
}

// getOutputs reads the stack's outputs. The masked listing is fetched
// first to learn which outputs are secret, then the revealed listing for
// the actual values.
func (w *workspace) getOutputs(ctx context.Context) (map[string]provisioner.OutputValue, error) {
	masked, err := w.backend.runPulumi(ctx, w.workDir, []string{
		"stack", "output", "--stack", w.stackName, "--json",
	})
	if err != nil {
		return nil, err
	}

	revealed, err := w.backend.runPulumi(ctx, w.workDir, []string{
		"stack", "output", "--stack", w.stackName, "--json", "--show-secrets",
	})
	if err != nil {
		return nil, err
	}

	return parseOutputs(masked, revealed)
}

// secretMask is the placeholder pulumi prints for secret outputs when
// --show-secrets is not passed.
const secretMask = "[secret]"

// parseOutputs combines the masked and revealed output listings into the
// backend's output map, flagging entries masked in the first listing as
// secret.
func parseOutputs(masked, revealed string) (map[string]provisioner.OutputValue, error) {
	var maskedOutputs map[string]interface{}
	if err := json.Unmarshal([]byte(masked), &maskedOutputs); err != nil {
		return nil, fmt.Errorf("failed to parse outputs: %w", err)
	}

	var revealedOutputs map[string]interface{}
	if err := json.Unmarshal([]byte(revealed), &revealedOutputs); err != nil {
		return nil, fmt.Errorf("failed to parse outputs: %w", err)
	}

	outputs := make(map[string]provisioner.OutputValue, len(revealedOutputs))
	for k, v := range revealedOutputs {
		secret := false
		if mv, ok := maskedOutputs[k]; ok {
			if s, ok := mv.(string); ok && s == secretMask {
				secret = true
			}
		}
		outputs[k] = provisioner.OutputValue{
			Value:  v,
			Secret: secret,
		}
	}

	return outputs, nil
}

func hasEnv(env []string, key string) bool {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// Ensure we implement the Backend interface
var _ provisioner.Backend = (*Backend)(nil)
