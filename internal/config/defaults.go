package config

import (
	"github.com/fmueller/voxnote/internal/model"
	"github.com/fmueller/voxnote/internal/whisper"
)

const (
	defaultConfigPath = "~/.config/voxnote/config.toml"

	BackendCLI = "cli"
	BackendCPP = "cpp"

	defaultBackend  = BackendCLI
	defaultLanguage = "auto"
	defaultFFmpeg   = "ffmpeg"
	defaultFFprobe  = "ffprobe"
	defaultWorkers  = 2

	defaultSilenceThresholdDBFS = -65.0
)

// Default returns a Config populated with every default value.
func Default() Config {
	return Config{
		Model: Model{
			Name: model.DefaultModel,
		},
		Engine: Engine{
			Backend:              defaultBackend,
			Language:             defaultLanguage,
			Threads:              whisper.DefaultThreads,
			SilenceThresholdDBFS: defaultSilenceThresholdDBFS,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Dispatch: Dispatch{
			Workers: defaultWorkers,
		},
	}
}
