// Package normalize converts arbitrary audio into the canonical WAV layout
// expected by the inference engine.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/fmueller/voxnote/internal/artifact"
	"go.uber.org/zap"
)

// ErrConversion is returned when the transcoder produced no usable output.
var ErrConversion = errors.New("audio conversion failed or produced empty file")

const randomNameLength = 10

type Normalizer struct {
	Transcoder Transcoder
	ScratchDir string
	Logger     *zap.Logger
}

// Normalize returns a canonical WAV path for audioPath. WAV inputs are passed
// through untouched; anything else is transcoded into ScratchDir and the
// output path is recorded in temps before the transcoder runs.
func (n *Normalizer) Normalize(ctx context.Context, audioPath string, temps *artifact.Set) (string, error) {
	if IsWAV(audioPath) {
		return audioPath, nil
	}
	if n.Transcoder == nil {
		return "", errors.New("normalizer has no transcoder")
	}

	if err := os.MkdirAll(n.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio directory %s: %w", n.ScratchDir, err)
	}

	wavPath := filepath.Join(n.ScratchDir, randomName()+".wav")
	temps.Add(wavPath)

	n.log().Debug("converting audio", zap.String("input", audioPath), zap.String("output", wavPath))
	runErr := n.Transcoder.Transcode(ctx, audioPath, wavPath, CanonicalParams)

	info, statErr := os.Stat(wavPath)
	if statErr != nil || info.Size() == 0 {
		if runErr != nil {
			return "", fmt.Errorf("%w: %w", ErrConversion, runErr)
		}
		return "", ErrConversion
	}
	if runErr != nil {
		return "", fmt.Errorf("%w: transcoder reported failure: %w", ErrConversion, runErr)
	}

	return wavPath, nil
}

// IsWAV reports whether path names a WAV container by extension.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

func randomName() string {
	b := make([]byte, randomNameLength)
	for i := range b {
		b[i] = byte('a' + rand.IntN(26))
	}
	return string(b)
}

func (n *Normalizer) log() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}
