package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fmueller/voxnote/internal/model"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateModel(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if c.Dispatch.Workers < 0 {
		return errors.New("dispatch.workers must be zero (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateModel() error {
	if _, err := model.Resolve(c.Model.Name); err != nil {
		return fmt.Errorf("model.name: %w", err)
	}
	if c.Model.SHA256 != "" {
		decoded, err := hex.DecodeString(c.Model.SHA256)
		if err != nil || len(decoded) != 32 {
			return errors.New("model.sha256 must be a 64 character hex digest")
		}
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Backend {
	case BackendCLI, BackendCPP:
	default:
		return fmt.Errorf("engine.backend must be %q or %q, got %q", BackendCLI, BackendCPP, c.Engine.Backend)
	}
	if c.Engine.Threads < 1 {
		return errors.New("engine.threads must be at least 1")
	}
	if c.Engine.SilenceThresholdDBFS >= 0 {
		return errors.New("engine.silence_threshold_dbfs must be negative")
	}
	return nil
}
