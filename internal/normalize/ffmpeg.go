package normalize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Params is the target format handed to a Transcoder.
type Params struct {
	Channels   int
	SampleRate int
	Codec      string
	Overwrite  bool
}

// CanonicalParams is mono 16 kHz signed 16-bit little-endian PCM, the only
// input the inference engine accepts.
var CanonicalParams = Params{Channels: 1, SampleRate: 16000, Codec: "pcm_s16le", Overwrite: true}

type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, params Params) error
}

// FFmpeg transcodes through an ffmpeg binary on PATH or at Binary.
type FFmpeg struct {
	Binary string
}

func (f FFmpeg) Transcode(ctx context.Context, inputPath, outputPath string, params Params) error {
	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	args := buildFFmpegArgs(inputPath, outputPath, params)
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg convert: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func buildFFmpegArgs(inputPath, outputPath string, params Params) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}
	if params.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}
	args = append(args, "-i", inputPath, "-vn")
	if params.Codec != "" {
		args = append(args, "-acodec", params.Codec)
	}
	if params.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(params.Channels))
	}
	if params.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(params.SampleRate))
	}
	return append(args, outputPath)
}
