// Package config loads formdemo settings from built-in defaults, an optional
// YAML file and FORMDEMO_* environment variables, in that order. Command line
// flags are applied on top by cmd/formdemo.
package config
