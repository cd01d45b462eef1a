// Package config loads harness configuration from YAML with environment
// variable overrides (SCOPESIM_* pattern) and validation.
package config
