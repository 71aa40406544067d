//go:build !whispercpp

package whisper

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const CPPAvailable = false

var ErrCPPEngineUnavailable = errors.New("in-process whisper engine not compiled in; rebuild with -tags whispercpp")

type CPPEngine struct{}

func NewCPPEngine(*zap.Logger) (*CPPEngine, error) {
	return nil, ErrCPPEngineUnavailable
}

func (*CPPEngine) Transcribe(context.Context, TranscriptionRequest) (string, error) {
	return "", ErrCPPEngineUnavailable
}

func (*CPPEngine) Close() error { return nil }
