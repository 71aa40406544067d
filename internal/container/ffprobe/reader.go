package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/fmueller/voxnote/internal/container"
	"go.uber.org/zap"
)

// Demuxer opens containers through the ffprobe binary.
type Demuxer struct {
	Binary string
	Logger *zap.Logger
}

func (d Demuxer) OpenReader(ctx context.Context, path string) (container.Reader, error) {
	result, err := Inspect(ctx, d.Binary, path)
	if err != nil {
		return nil, err
	}

	tracks := make([]container.Track, 0, len(result.Streams))
	for _, stream := range result.Streams {
		track, err := trackFromStream(stream)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &reader{
		ctx:      ctx,
		binary:   binaryOrDefault(d.Binary),
		path:     path,
		tracks:   tracks,
		selected: -1,
		logger:   logger,
	}, nil
}

func trackFromStream(stream Stream) (container.Track, error) {
	track := container.Track{
		Index:      stream.Index,
		MIME:       stream.MIME(),
		Codec:      strings.ToLower(strings.TrimSpace(stream.CodecName)),
		SampleRate: parseInt(stream.SampleRate),
		Channels:   stream.Channels,
		BitDepth:   stream.BitsPerSample,
	}
	if strings.TrimSpace(stream.Extradata) != "" {
		private, err := ParseHexDump(stream.Extradata)
		if err != nil {
			return container.Track{}, fmt.Errorf("stream %d extradata: %w", stream.Index, err)
		}
		track.CodecPrivate = private
	}
	return track, nil
}

type packet struct {
	StreamIndex int    `json:"stream_index"`
	PTSTime     string `json:"pts_time"`
	DTSTime     string `json:"dts_time"`
	Flags       string `json:"flags"`
	Data        string `json:"data"`
}

type reader struct {
	ctx      context.Context
	binary   string
	path     string
	tracks   []container.Track
	selected int
	logger   *zap.Logger

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  bytes.Buffer
	decoder *json.Decoder
	done    bool
}

func (r *reader) Tracks() []container.Track {
	return append([]container.Track(nil), r.tracks...)
}

func (r *reader) SelectTrack(index int) error {
	if r.decoder != nil {
		return errors.New("track already selected and reading")
	}
	for _, track := range r.tracks {
		if track.Index == index {
			r.selected = index
			return nil
		}
	}
	return fmt.Errorf("track %d not present in %s", index, r.path)
}

func (r *reader) ReadSample(ctx context.Context) (container.Sample, error) {
	if r.selected < 0 {
		return container.Sample{}, container.ErrNoTrackSelected
	}
	if r.done {
		return container.Sample{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return container.Sample{}, err
	}
	if r.decoder == nil {
		if err := r.start(); err != nil {
			return container.Sample{}, err
		}
	}

	for r.decoder.More() {
		var pkt packet
		if err := r.decoder.Decode(&pkt); err != nil {
			return container.Sample{}, fmt.Errorf("decode ffprobe packet: %w", err)
		}
		if pkt.StreamIndex != r.selected {
			continue
		}
		return sampleFromPacket(pkt)
	}

	r.done = true
	_, _ = io.Copy(io.Discard, r.stdout)
	if err := r.wait(); err != nil {
		return container.Sample{}, err
	}
	return container.Sample{}, io.EOF
}

func (r *reader) start() error {
	args := []string{"-v", "error", "-hide_banner", "-select_streams", strconv.Itoa(r.selected), "-show_packets", "-show_data", "-of", "json", "--", r.path}
	r.cmd = exec.CommandContext(r.ctx, r.binary, args...) //nolint:gosec
	r.cmd.Stderr = &r.stderr

	stdout, err := r.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffprobe packets: %w", err)
	}
	r.stdout = stdout

	r.logger.Debug("reading packets", zap.String("source", r.path), zap.Int("track", r.selected))
	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("ffprobe packets: %w", err)
	}

	dec := json.NewDecoder(stdout)
	if err := expectPacketArray(dec); err != nil {
		r.abort()
		return fmt.Errorf("ffprobe packets: %w: %s", err, strings.TrimSpace(r.stderr.String()))
	}
	r.decoder = dec
	return nil
}

// abort kills a packet read that never produced a usable stream.
func (r *reader) abort() {
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
	}
	r.cmd = nil
	r.stdout = nil
	r.decoder = nil
}

// expectPacketArray advances the decoder to the first element of "packets".
func expectPacketArray(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unexpected token %v", tok)
	}

	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		if key == "packets" {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if delim, ok := tok.(json.Delim); !ok || delim != '[' {
				return fmt.Errorf("unexpected token %v", tok)
			}
			return nil
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return errors.New("no packets in ffprobe output")
}

func sampleFromPacket(pkt packet) (container.Sample, error) {
	data, err := ParseHexDump(pkt.Data)
	if err != nil {
		return container.Sample{}, fmt.Errorf("packet payload: %w", err)
	}

	ts := pkt.PTSTime
	if strings.TrimSpace(ts) == "" || ts == "N/A" {
		ts = pkt.DTSTime
	}
	seconds := parseFloat(ts)
	if math.IsNaN(seconds) {
		return container.Sample{}, fmt.Errorf("packet timestamp %q is not a number", ts)
	}

	return container.Sample{
		Data:     data,
		PTS:      time.Duration(math.Round(seconds * float64(time.Second))),
		Keyframe: strings.HasPrefix(pkt.Flags, "K"),
	}, nil
}

func (r *reader) wait() error {
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	cmd := r.cmd
	r.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffprobe packets: %w: %s", err, strings.TrimSpace(r.stderr.String()))
	}
	return nil
}

// Close stops a packet read that is still in flight.
func (r *reader) Close() error {
	r.done = true
	if r.cmd == nil || r.cmd.Process == nil {
		return nil
	}
	_ = r.cmd.Process.Kill()
	cmd := r.cmd
	r.cmd = nil
	// killed on purpose; the exit status carries no information
	_ = cmd.Wait()
	return nil
}

func binaryOrDefault(binary string) string {
	if strings.TrimSpace(binary) == "" {
		return "ffprobe"
	}
	return binary
}
