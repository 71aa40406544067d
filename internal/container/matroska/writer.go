// Package matroska writes single-track, audio-only Matroska files from
// compressed samples, which is enough to copy any common audio codec out of a
// video container without transcoding it.
package matroska

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fmueller/voxnote/internal/container"
)

const (
	trackNumber    = 1
	maxClusterSize = 4 << 20
	appName        = "voxnote"
)

// codecIDs covers codecs whose ffmpeg extradata is already laid out the way
// Matroska expects CodecPrivate. FLAC, Vorbis and ALAC need their headers
// rewritten and are rejected.
var codecIDs = map[string]string{
	"aac":       "A_AAC",
	"opus":      "A_OPUS",
	"mp3":       "A_MPEG/L3",
	"mp2":       "A_MPEG/L2",
	"ac3":       "A_AC3",
	"eac3":      "A_EAC3",
	"pcm_s16le": "A_PCM/INT/LIT",
	"pcm_s24le": "A_PCM/INT/LIT",
	"pcm_s32le": "A_PCM/INT/LIT",
	"pcm_s16be": "A_PCM/INT/BIG",
	"pcm_f32le": "A_PCM/FLOAT/IEEE",
}

// CodecID maps an ffmpeg codec name to its Matroska codec identifier.
func CodecID(codec string) (string, bool) {
	id, ok := codecIDs[strings.ToLower(strings.TrimSpace(codec))]
	return id, ok
}

type Muxer struct{}

func (Muxer) Extension() string { return ".mka" }

func (Muxer) CreateWriter(_ context.Context, path string) (container.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create matroska output: %w", err)
	}
	return &writer{file: f, out: bufio.NewWriter(f)}, nil
}

type writer struct {
	file *os.File
	out  *bufio.Writer

	track   *container.Track
	codecID string
	started bool
	stopped bool
	closed  bool

	cluster     bytes.Buffer
	clusterOpen bool
	clusterTC   int64
}

func (w *writer) AddTrack(format container.Track) (int, error) {
	if w.started {
		return 0, errors.New("cannot add track after start")
	}
	if w.track != nil {
		return 0, errors.New("matroska writer supports a single track")
	}
	if !format.IsAudio() {
		return 0, fmt.Errorf("track %d is not audio (%s)", format.Index, format.MIME)
	}
	codecID, ok := CodecID(format.Codec)
	if !ok {
		return 0, fmt.Errorf("codec %q cannot be copied into matroska", format.Codec)
	}

	w.track = &format
	w.codecID = codecID
	return trackNumber, nil
}

func (w *writer) Start() error {
	if w.started {
		return errors.New("matroska writer already started")
	}
	if w.track == nil {
		return errors.New("matroska writer has no track")
	}

	var head bytes.Buffer

	var ebml bytes.Buffer
	uintElement(&ebml, idEBMLVersion, 1)
	uintElement(&ebml, idEBMLReadVersion, 1)
	uintElement(&ebml, idEBMLMaxIDLength, 4)
	uintElement(&ebml, idEBMLMaxSizeLength, 8)
	stringElement(&ebml, idDocType, "matroska")
	uintElement(&ebml, idDocTypeVersion, 4)
	uintElement(&ebml, idDocTypeReadVersion, 2)
	element(&head, idEBML, ebml.Bytes())

	putID(&head, idSegment)
	head.Write(unknownSize)

	var info bytes.Buffer
	uintElement(&info, idTimecodeScale, uint64(time.Millisecond))
	stringElement(&info, idMuxingApp, appName)
	stringElement(&info, idWritingApp, appName)
	element(&head, idInfo, info.Bytes())

	var entry bytes.Buffer
	uintElement(&entry, idTrackNumber, trackNumber)
	uintElement(&entry, idTrackUID, trackNumber)
	uintElement(&entry, idTrackType, 2)
	uintElement(&entry, idFlagLacing, 0)
	stringElement(&entry, idCodecID, w.codecID)
	if len(w.track.CodecPrivate) > 0 {
		element(&entry, idCodecPrivate, w.track.CodecPrivate)
	}

	var audio bytes.Buffer
	if w.track.SampleRate > 0 {
		floatElement(&audio, idSamplingFrequency, float64(w.track.SampleRate))
	}
	if w.track.Channels > 0 {
		uintElement(&audio, idChannels, uint64(w.track.Channels))
	}
	if w.track.BitDepth > 0 {
		uintElement(&audio, idBitDepth, uint64(w.track.BitDepth))
	}
	element(&entry, idAudio, audio.Bytes())

	var tracks bytes.Buffer
	element(&tracks, idTrackEntry, entry.Bytes())
	element(&head, idTracks, tracks.Bytes())

	if _, err := w.out.Write(head.Bytes()); err != nil {
		return fmt.Errorf("write matroska header: %w", err)
	}
	w.started = true
	return nil
}

func (w *writer) WriteSample(track int, sample container.Sample) error {
	if !w.started || w.stopped {
		return container.ErrNotStarted
	}
	if track != trackNumber {
		return fmt.Errorf("unknown track %d", track)
	}

	ts := sample.PTS.Milliseconds()
	rel := ts - w.clusterTC
	if !w.clusterOpen || rel > math.MaxInt16 || rel < math.MinInt16 || w.cluster.Len() > maxClusterSize {
		if err := w.flushCluster(); err != nil {
			return err
		}
		w.clusterTC = max(ts, 0)
		w.clusterOpen = true
		rel = ts - w.clusterTC
	}

	var flags byte
	if sample.Keyframe {
		flags = 0x80
	}

	var block bytes.Buffer
	putSize(&block, trackNumber)
	block.Write([]byte{byte(uint16(int16(rel)) >> 8), byte(uint16(int16(rel))), flags})
	block.Write(sample.Data)
	element(&w.cluster, idSimpleBlock, block.Bytes())
	return nil
}

func (w *writer) flushCluster() error {
	if !w.clusterOpen {
		return nil
	}

	var body bytes.Buffer
	uintElement(&body, idTimecode, uint64(w.clusterTC))
	body.Write(w.cluster.Bytes())

	var cluster bytes.Buffer
	element(&cluster, idCluster, body.Bytes())
	if _, err := w.out.Write(cluster.Bytes()); err != nil {
		return fmt.Errorf("write matroska cluster: %w", err)
	}

	w.cluster.Reset()
	w.clusterOpen = false
	return nil
}

func (w *writer) Stop() error {
	if !w.started {
		return container.ErrNotStarted
	}
	if w.stopped {
		return nil
	}
	w.stopped = true

	if err := w.flushCluster(); err != nil {
		return err
	}
	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("flush matroska output: %w", err)
	}
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
