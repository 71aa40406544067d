package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeModel()
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeTools()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StorageRoot, err = expandPath(strings.TrimSpace(c.Paths.StorageRoot)); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if c.Paths.AssetDir, err = expandPath(strings.TrimSpace(c.Paths.AssetDir)); err != nil {
		return fmt.Errorf("paths.asset_dir: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeModel() {
	c.Model.Name = strings.TrimSpace(c.Model.Name)
	if c.Model.Name == "" {
		c.Model.Name = Default().Model.Name
	}
	c.Model.SHA256 = strings.ToLower(strings.TrimSpace(c.Model.SHA256))
}

func (c *Config) normalizeEngine() error {
	c.Engine.Backend = strings.ToLower(strings.TrimSpace(c.Engine.Backend))
	if c.Engine.Backend == "" {
		c.Engine.Backend = defaultBackend
	}
	c.Engine.Language = strings.ToLower(strings.TrimSpace(c.Engine.Language))
	if c.Engine.Language == "" {
		c.Engine.Language = defaultLanguage
	}
	if c.Engine.Threads == 0 {
		c.Engine.Threads = Default().Engine.Threads
	}
	if c.Engine.SilenceThresholdDBFS == 0 {
		c.Engine.SilenceThresholdDBFS = defaultSilenceThresholdDBFS
	}

	var err error
	if c.Engine.WhisperPath, err = expandPath(strings.TrimSpace(c.Engine.WhisperPath)); err != nil {
		return fmt.Errorf("engine.whisper_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
}
