package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fmueller/voxnote/internal/container"
	"github.com/stretchr/testify/require"
)

type staticReader struct {
	tracks []container.Track
	closed bool
}

func (r *staticReader) Tracks() []container.Track { return r.tracks }
func (r *staticReader) SelectTrack(int) error     { return nil }
func (r *staticReader) ReadSample(context.Context) (container.Sample, error) {
	return container.Sample{}, io.EOF
}
func (r *staticReader) Close() error {
	r.closed = true
	return nil
}

type staticDemuxer struct {
	reader *staticReader
	err    error
}

func (d staticDemuxer) OpenReader(context.Context, string) (container.Reader, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.reader, nil
}

func TestTracksRendersTable(t *testing.T) {
	t.Parallel()

	reader := &staticReader{tracks: []container.Track{
		{Index: 0, MIME: "video/h264", Codec: "h264"},
		{Index: 1, MIME: "audio/aac", Codec: "aac", SampleRate: 48000, Channels: 2},
		{Index: 2, MIME: "audio/opus", Codec: "opus", SampleRate: 48000, Channels: 2},
	}}
	app := &appState{demuxerFn: func() container.Demuxer { return staticDemuxer{reader: reader} }}
	input := touch(t, t.TempDir(), "movie.mkv")

	stdout, _, err := runApp(t, app, []string{"tracks", input})
	require.NoError(t, err)
	require.True(t, reader.closed)

	lines := strings.Split(stdout, "\n")
	var aacLine, opusLine string
	for _, line := range lines {
		switch {
		case strings.Contains(line, "audio/aac"):
			aacLine = line
		case strings.Contains(line, "audio/opus"):
			opusLine = line
		}
	}
	require.Contains(t, stdout, "video/h264")
	require.Contains(t, aacLine, "48000")
	require.Contains(t, aacLine, "*")
	require.NotContains(t, opusLine, "*")
}

func TestTracksEmptyContainer(t *testing.T) {
	t.Parallel()

	app := &appState{demuxerFn: func() container.Demuxer { return staticDemuxer{reader: &staticReader{}} }}
	input := touch(t, t.TempDir(), "empty.mkv")

	stdout, _, err := runApp(t, app, []string{"tracks", input})
	require.NoError(t, err)
	require.Equal(t, "No tracks found.\n", stdout)
}

func TestTracksOpenFailure(t *testing.T) {
	t.Parallel()

	app := &appState{demuxerFn: func() container.Demuxer {
		return staticDemuxer{err: errors.New("ffprobe inspect: exit status 1")}
	}}
	input := touch(t, t.TempDir(), "broken.mkv")

	_, _, err := runApp(t, app, []string{"tracks", input})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ffprobe inspect")
}

func TestRenderTracksPlaceholders(t *testing.T) {
	t.Parallel()

	out := renderTracks([]container.Track{{Index: 0, MIME: "video/h264", Codec: "h264"}})
	require.Contains(t, out, "-")
	require.NotContains(t, out, "*")
}
