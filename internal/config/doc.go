// Package config loads voxnote's TOML configuration.
//
// Values come from Default, then the config file, then normalization
// (path expansion, trimming, defaults for blank keys), then Validate. CLI
// flags are applied on top by the caller.
package config
