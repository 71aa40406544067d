//go:build whispercpp

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fmueller/voxnote/internal/audio"
	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"
)

// CPPAvailable reports whether the in-process engine was compiled in.
const CPPAvailable = true

// CPPEngine runs whisper.cpp in-process. Loaded models are kept until Close.
type CPPEngine struct {
	Logger *zap.Logger

	mu     sync.Mutex
	models map[string]whisper.Model
	busy   modelLocks
}

func NewCPPEngine(logger *zap.Logger) (*CPPEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CPPEngine{Logger: logger, models: make(map[string]whisper.Model)}, nil
}

func (e *CPPEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}

	samples, err := audio.ReadMonoPCM16(req.AudioPath)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	e.Logger.Debug("audio loaded", zap.Int("samples", len(samples)), zap.Float64("duration_sec", float64(len(samples))/16000.0))

	model, err := e.model(req.ModelPath)
	if err != nil {
		return "", err
	}

	unlock := e.busy.lock(req.ModelPath)
	defer unlock()

	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}

	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		e.Logger.Warn("failed to set language", zap.String("language", lang), zap.Error(err))
	}

	threads := req.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}
	wctx.SetThreads(uint(threads))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var text strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("get segment: %w", err)
		}
		text.WriteString(segment.Text)
	}

	return strings.TrimSpace(text.String()), nil
}

func (e *CPPEngine) model(path string) (whisper.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.models[path]; ok {
		return m, nil
	}

	e.Logger.Info("loading whisper model", zap.String("path", path))
	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("load whisper model: %w", err)
	}
	e.models[path] = m
	return m, nil
}

func (e *CPPEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for path, m := range e.models {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close model %s: %w", path, err))
		}
		delete(e.models, path)
	}
	return errors.Join(errs...)
}
