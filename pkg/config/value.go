// Package config provides stack configuration values and the resolver that
// merges externally-sourced configuration with programmatic configuration.
package config

// Value is an immutable configuration value with a secrecy flag. Secret
// values are redacted by String so they never reach logs in cleartext.
type Value struct {
	value  string
	secret bool
}

// Plain creates a non-secret configuration value.
func Plain(v string) Value {
	return Value{value: v}
}

// Secret creates a secret configuration value.
func Secret(v string) Value {
	return Value{value: v, secret: true}
}

// Value returns the underlying string.
func (v Value) Value() string {
	return v.value
}

// IsSecret reports whether the value must be treated as a secret.
func (v Value) IsSecret() bool {
	return v.secret
}

// String implements fmt.Stringer, redacting secret values.
func (v Value) String() string {
	if v.secret {
		return "[secret]"
	}
	return v.value
}

// Map is the mutable configuration map a stack is configured through.
type Map = map[string]Value

// ConfigureFunc mutates a stack's configuration map before it is pushed to
// the provisioning backend. A nil ConfigureFunc means no configuration.
type ConfigureFunc func(Map)
