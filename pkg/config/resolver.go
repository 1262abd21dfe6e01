package config

// Resolve merges externally-sourced configuration with a stack's
// programmatic configure callback.
//
// When the source has no section for the stack, the programmatic callback
// is returned unchanged (it may be nil). When a section exists, the
// returned callback copies every leaf entry of the section into the target
// map first and invokes the programmatic callback last, so explicit code
// overrides externally-sourced values.
//
// Key names are not validated; duplicate keys collide last-write-wins on
// the shared map. Externally-sourced values are plain (non-secret);
// secrecy is opt-in through the programmatic callback.
func Resolve(src Source, stackName string, programmatic ConfigureFunc) ConfigureFunc {
	if src == nil {
		return programmatic
	}

	section, ok := src.StackSection(stackName)
	if !ok {
		return programmatic
	}

	return func(m Map) {
		for k, v := range section {
			m[k] = Plain(v)
		}
		if programmatic != nil {
			programmatic(m)
		}
	}
}
