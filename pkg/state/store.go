// Package state records stack output snapshots after each successful apply.
// Snapshots are diagnostic: run-mode resolution always reads live outputs,
// never a snapshot.
package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/architect-io/stackhost/pkg/errors"
	"github.com/architect-io/stackhost/pkg/provisioner"
	"github.com/architect-io/stackhost/pkg/state/backend"
)

// StackSnapshot is the recorded result of one stack apply.
type StackSnapshot struct {
	App       string                    `json:"app"`
	Stack     string                    `json:"stack"`
	RunID     string                    `json:"run_id"`
	AppliedAt time.Time                 `json:"applied_at"`
	Outputs   map[string]SnapshotOutput `json:"outputs"`
}

// SnapshotOutput is one recorded output. Secret values are elided so the
// snapshot never persists secrets in cleartext.
type SnapshotOutput struct {
	Value  interface{} `json:"value,omitempty"`
	Secret bool        `json:"secret,omitempty"`
}

// NewStackSnapshot builds a snapshot from a stack's applied outputs,
// eliding secret values.
func NewStackSnapshot(app, stack string, outputs map[string]provisioner.OutputValue) *StackSnapshot {
	snap := &StackSnapshot{
		App:       app,
		Stack:     stack,
		RunID:     uuid.New().String(),
		AppliedAt: time.Now().UTC(),
		Outputs:   make(map[string]SnapshotOutput, len(outputs)),
	}

	for name, out := range outputs {
		if out.Secret {
			snap.Outputs[name] = SnapshotOutput{Secret: true}
			continue
		}
		snap.Outputs[name] = SnapshotOutput{Value: out.Value}
	}

	return snap
}

// Store provides snapshot persistence over a storage backend.
type Store struct {
	backend backend.Backend
}

// NewStore creates a store using the given backend.
func NewStore(b backend.Backend) *Store {
	return &Store{backend: b}
}

// NewStoreFromConfig creates a store from backend configuration.
func NewStoreFromConfig(config backend.Config) (*Store, error) {
	b, err := backend.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create state backend: %w", err)
	}
	return NewStore(b), nil
}

// Backend returns the store's backend.
func (s *Store) Backend() backend.Backend {
	return s.backend
}

// Save persists a snapshot, replacing any previous snapshot of the stack.
func (s *Store) Save(ctx context.Context, snap *StackSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	p := snapshotPath(snap.App, snap.Stack)
	if err := s.backend.Write(ctx, p, bytes.NewReader(data)); err != nil {
		return errors.BackendError(s.backend.Type(), "write", err)
	}
	return nil
}

// Get loads the snapshot of one stack.
func (s *Store) Get(ctx context.Context, app, stack string) (*StackSnapshot, error) {
	rc, err := s.backend.Read(ctx, snapshotPath(app, stack))
	if err != nil {
		if err == backend.ErrNotFound {
			return nil, errors.NotFoundError("snapshot", app+"/"+stack)
		}
		return nil, errors.BackendError(s.backend.Type(), "read", err)
	}
	defer rc.Close()

	var snap StackSnapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// List returns the stack names with snapshots for an application, sorted.
func (s *Store) List(ctx context.Context, app string) ([]string, error) {
	paths, err := s.backend.List(ctx, path.Join("apps", app, "stacks"))
	if err != nil {
		return nil, errors.BackendError(s.backend.Type(), "list", err)
	}

	var stacks []string
	for _, p := range paths {
		name := strings.TrimSuffix(path.Base(p), ".json")
		if name != "" {
			stacks = append(stacks, name)
		}
	}
	sort.Strings(stacks)
	return stacks, nil
}

// Delete removes the snapshot of one stack.
func (s *Store) Delete(ctx context.Context, app, stack string) error {
	if err := s.backend.Delete(ctx, snapshotPath(app, stack)); err != nil {
		return errors.BackendError(s.backend.Type(), "delete", err)
	}
	return nil
}

func snapshotPath(app, stack string) string {
	return path.Join("apps", app, "stacks", stack+".json")
}
