// Package extract copies the first audio track of a video container into a
// standalone audio file, sample by sample, without re-encoding.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fmueller/voxnote/internal/artifact"
	"github.com/fmueller/voxnote/internal/container"
	"go.uber.org/zap"
)

// ErrNoAudioTrack means the container has nothing to transcribe; retrying
// the same input cannot succeed.
var ErrNoAudioTrack = errors.New("no audio track found")

type Extractor struct {
	Demuxer container.Demuxer
	Muxer   container.Muxer
	Logger  *zap.Logger
}

// Extract writes the first audio track of videoPath to videoPath plus the
// muxer's extension and records that file in temps before creating it.
func (e *Extractor) Extract(ctx context.Context, videoPath string, temps *artifact.Set) (string, error) {
	if e.Demuxer == nil || e.Muxer == nil {
		return "", errors.New("extractor is missing a demuxer or muxer")
	}
	logger := e.log()

	reader, err := e.Demuxer.OpenReader(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("open container %s: %w", videoPath, err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			logger.Warn("error releasing container reader", zap.String("source", videoPath), zap.Error(cerr))
		}
	}()

	track, ok := container.FirstAudioTrack(reader.Tracks())
	if !ok {
		return "", ErrNoAudioTrack
	}
	logger.Debug("selected audio track", zap.String("source", videoPath), zap.Int("track", track.Index), zap.String("mime", track.MIME))

	outPath := videoPath + e.Muxer.Extension()
	temps.Add(outPath)

	writer, err := e.Muxer.CreateWriter(ctx, outPath)
	if err != nil {
		return "", fmt.Errorf("create audio output: %w", err)
	}

	started := false
	defer func() {
		if started {
			if serr := writer.Stop(); serr != nil {
				logger.Warn("error stopping container writer", zap.String("output", outPath), zap.Error(serr))
			}
		}
		if cerr := writer.Close(); cerr != nil {
			logger.Warn("error releasing container writer", zap.String("output", outPath), zap.Error(cerr))
		}
	}()

	outTrack, err := writer.AddTrack(track)
	if err != nil {
		return "", fmt.Errorf("declare audio track: %w", err)
	}
	if err := writer.Start(); err != nil {
		return "", fmt.Errorf("start audio output: %w", err)
	}
	started = true

	if err := reader.SelectTrack(track.Index); err != nil {
		return "", fmt.Errorf("select audio track: %w", err)
	}

	samples := 0
	for {
		sample, err := reader.ReadSample(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read sample %d: %w", samples, err)
		}
		if err := writer.WriteSample(outTrack, sample); err != nil {
			return "", fmt.Errorf("write sample %d: %w", samples, err)
		}
		samples++
	}

	logger.Debug("audio track copied", zap.String("output", outPath), zap.Int("samples", samples))
	return outPath, nil
}

func (e *Extractor) log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
