// Package container describes the demux and remux primitives used to copy an
// audio track out of a media container without re-encoding it.
package container

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotStarted is returned when a writer is stopped or fed samples
	// before Start succeeded.
	ErrNotStarted = errors.New("container writer not started")
	// ErrNoTrackSelected is returned by ReadSample before SelectTrack.
	ErrNoTrackSelected = errors.New("no track selected")
)

// Track is the format descriptor of one elementary stream in a container.
type Track struct {
	Index        int
	MIME         string
	Codec        string
	SampleRate   int
	Channels     int
	BitDepth     int
	CodecPrivate []byte
}

// IsAudio reports whether the track declares an audio media type.
func (t Track) IsAudio() bool {
	return strings.HasPrefix(strings.ToLower(t.MIME), "audio/")
}

// Sample is one compressed access unit with its presentation timestamp.
type Sample struct {
	Data     []byte
	PTS      time.Duration
	Keyframe bool
}

// Reader reads samples from a container opened for sequential access.
type Reader interface {
	Tracks() []Track
	SelectTrack(index int) error
	// ReadSample returns io.EOF once the selected track is exhausted.
	ReadSample(ctx context.Context) (Sample, error)
	Close() error
}

// Writer produces a container from samples. Stop finalizes the output and is
// only valid after a successful Start.
type Writer interface {
	AddTrack(format Track) (int, error)
	Start() error
	WriteSample(track int, sample Sample) error
	Stop() error
	Close() error
}

type Demuxer interface {
	OpenReader(ctx context.Context, path string) (Reader, error)
}

type Muxer interface {
	CreateWriter(ctx context.Context, path string) (Writer, error)
	// Extension is the file extension, including the dot, of produced files.
	Extension() string
}

// FirstAudioTrack returns the first track, in container order, whose media
// type is audio.
func FirstAudioTrack(tracks []Track) (Track, bool) {
	for _, track := range tracks {
		if track.IsAudio() {
			return track, true
		}
	}
	return Track{}, false
}
