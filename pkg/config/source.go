package config

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// stackSectionPrefix is the configuration path stack sections live under,
// i.e. the Pulumi:Stacks:<name> hierarchy of the host configuration file.
const stackSectionPrefix = "pulumi.stacks."

// Source provides externally-supplied configuration for stacks. A source
// with no section for a stack is not an error; the stack simply uses
// programmatic configuration only.
type Source interface {
	// StackSection returns the leaf configuration entries for the named
	// stack with the section prefix stripped, and whether a section
	// exists at all. Entries with null values are omitted.
	StackSection(stackName string) (map[string]string, bool)
}

// ViperSource reads stack configuration sections from a viper instance,
// typically the host's config file. Viper case-folds all keys, so section
// lookup is case-insensitive and the returned entry keys are lowercase;
// stacks whose names differ only in case share one section.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource creates a Source backed by the given viper instance.
func NewViperSource(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

func (s *ViperSource) StackSection(stackName string) (map[string]string, bool) {
	if s.v == nil {
		return nil, false
	}

	sub := s.v.Sub(stackSectionPrefix + stackName)
	if sub == nil {
		return nil, false
	}

	section := make(map[string]string)
	flattenSettings("", sub.AllSettings(), section)
	return section, true
}

// flattenSettings copies leaf entries of a nested settings map into out,
// joining nested keys with ":" and skipping null values.
func flattenSettings(prefix string, settings map[string]interface{}, out map[string]string) {
	// Sort for deterministic traversal; collisions are last-write-wins.
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := settings[k]
		key := k
		if prefix != "" {
			key = prefix + ":" + k
		}

		switch val := v.(type) {
		case nil:
			continue
		case map[string]interface{}:
			flattenSettings(key, val, out)
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
