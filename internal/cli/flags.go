package cli

import (
	"strings"

	"github.com/fmueller/voxnote/internal/config"
)

// flagOverrides holds flag values that win over the config file when the
// user set them explicitly.
type flagOverrides struct {
	verbose  bool
	jsonLogs bool
	logFile  string

	storageRoot string
	assetDir    string
	model       string

	ffmpeg  string
	ffprobe string

	engine      string
	whisperPath string
	language    string
	threads     int
	workers     int
	silenceGate bool
	silenceDBFS float64
}

func (o flagOverrides) apply(changed func(string) bool, cfg *config.Config) {
	if changed("verbose") {
		cfg.Logging.Verbose = o.verbose
	}
	if changed("json") {
		cfg.Logging.JSON = o.jsonLogs
	}
	if changed("log-file") {
		cfg.Logging.File = o.logFile
	}
	if changed("storage-root") {
		cfg.Paths.StorageRoot = o.storageRoot
	}
	if changed("asset-dir") {
		cfg.Paths.AssetDir = o.assetDir
	}
	if changed("model") {
		cfg.Model.Name = strings.TrimSpace(o.model)
		cfg.Model.SHA256 = ""
	}
	if changed("ffmpeg") {
		cfg.Tools.FFmpeg = o.ffmpeg
	}
	if changed("ffprobe") {
		cfg.Tools.FFprobe = o.ffprobe
	}
	if changed("engine") {
		cfg.Engine.Backend = strings.ToLower(strings.TrimSpace(o.engine))
	}
	if changed("whisper-path") {
		cfg.Engine.WhisperPath = o.whisperPath
	}
	if changed("language") {
		cfg.Engine.Language = sanitizeLanguage(o.language)
	}
	if changed("threads") {
		cfg.Engine.Threads = o.threads
	}
	if changed("workers") {
		cfg.Dispatch.Workers = o.workers
	}
	if changed("silence-gate") {
		cfg.Engine.SilenceGate = o.silenceGate
	}
	if changed("silence-threshold-dbfs") {
		cfg.Engine.SilenceThresholdDBFS = o.silenceDBFS
	}
}

func sanitizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return "auto"
	}
	return trimmed
}
