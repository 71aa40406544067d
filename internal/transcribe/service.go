// Package transcribe runs one file through model resolution, audio
// extraction, normalization and inference.
package transcribe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fmueller/voxnote/internal/artifact"
	"github.com/fmueller/voxnote/internal/audio"
	"github.com/fmueller/voxnote/internal/extract"
	"github.com/fmueller/voxnote/internal/whisper"
	"go.uber.org/zap"
)

const (
	DefaultLanguage = "auto"
	DefaultThreads  = whisper.DefaultThreads
)

type ModelResolver interface {
	Resolve(ctx context.Context) (string, error)
}

type AudioExtractor interface {
	Extract(ctx context.Context, videoPath string, temps *artifact.Set) (string, error)
}

type AudioNormalizer interface {
	Normalize(ctx context.Context, audioPath string, temps *artifact.Set) (string, error)
}

type Service struct {
	Models     ModelResolver
	Extractor  AudioExtractor
	Normalizer AudioNormalizer
	Engine     whisper.Engine

	Language string
	Threads  int

	// SilenceGate skips inference for canonical audio at or below
	// SilenceThresholdDBFS and reports an empty transcript.
	SilenceGate          bool
	SilenceThresholdDBFS float64

	Logger *zap.Logger
}

// Transcribe returns the trimmed transcript for path. Every temporary file
// created along the way is removed before it returns.
func (s *Service) Transcribe(ctx context.Context, path string, isVideo bool) (string, error) {
	logger := s.log().With(zap.String("input", path), zap.Bool("video", isVideo))
	started := time.Now()

	temps := &artifact.Set{}
	defer func() {
		removed := temps.Cleanup(logger)
		logger.Debug("temporary files cleaned up", zap.Int("removed", removed))
	}()

	modelPath, err := s.Models.Resolve(ctx)
	if err != nil {
		return "", stageError(KindModelUnavailable, "model", err)
	}
	logger.Debug("model resolved", zap.String("model", modelPath))

	audioPath := path
	if isVideo {
		audioPath, err = s.Extractor.Extract(ctx, path, temps)
		if err != nil {
			if errors.Is(err, extract.ErrNoAudioTrack) {
				return "", stageError(KindNoAudioTrack, "extract", err)
			}
			return "", stageError(KindExtractionFailure, "extract", err)
		}
		logger.Debug("audio track extracted", zap.String("audio", audioPath))
	}

	wavPath, err := s.Normalizer.Normalize(ctx, audioPath, temps)
	if err != nil {
		return "", stageError(KindConversionFailure, "normalize", err)
	}
	logger.Debug("audio normalized", zap.String("wav", wavPath))

	if s.SilenceGate && s.isSilent(wavPath, logger) {
		logger.Info("audio is silent; skipping inference")
		return "", nil
	}

	text, err := s.Engine.Transcribe(ctx, whisper.TranscriptionRequest{
		AudioPath: wavPath,
		ModelPath: modelPath,
		Language:  s.language(),
		Threads:   s.threads(),
	})
	if err != nil {
		return "", stageError(KindInferenceFailure, "inference", err)
	}

	text = strings.TrimSpace(text)
	logger.Info("transcription finished", zap.Int("chars", len(text)), zap.Duration("elapsed", time.Since(started)))
	return text, nil
}

func (s *Service) isSilent(wavPath string, logger *zap.Logger) bool {
	threshold := s.SilenceThresholdDBFS
	if threshold == 0 {
		threshold = audio.DefaultSilenceThresholdDBFS
	}

	silent, metrics, err := audio.IsSilentWAV(wavPath, threshold)
	if err != nil {
		logger.Warn("silence check failed; continuing with inference", zap.Error(err))
		return false
	}
	logger.Debug("silence check",
		zap.Float64("rms_dbfs", metrics.RMSdBFS),
		zap.Float64("peak_dbfs", metrics.PeakdBFS),
		zap.Int64("samples", metrics.Samples),
	)
	return silent
}

func (s *Service) language() string {
	if lang := strings.TrimSpace(s.Language); lang != "" {
		return lang
	}
	return DefaultLanguage
}

func (s *Service) threads() int {
	if s.Threads > 0 {
		return s.Threads
	}
	return DefaultThreads
}

func (s *Service) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
