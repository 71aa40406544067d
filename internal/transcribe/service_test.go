package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fmueller/voxnote/internal/artifact"
	"github.com/fmueller/voxnote/internal/extract"
	"github.com/fmueller/voxnote/internal/model"
	"github.com/fmueller/voxnote/internal/normalize"
	"github.com/fmueller/voxnote/internal/whisper"
	"github.com/stretchr/testify/require"
)

type staticModels struct {
	path string
	err  error
}

func (s staticModels) Resolve(context.Context) (string, error) {
	return s.path, s.err
}

type fakeExtractor struct {
	dir    string
	err    error
	calls  int
	output string
}

func (f *fakeExtractor) Extract(_ context.Context, videoPath string, temps *artifact.Set) (string, error) {
	f.calls++
	out := filepath.Join(f.dir, filepath.Base(videoPath)+".mka")
	temps.Add(out)
	if err := os.WriteFile(out, []byte("matroska"), 0o644); err != nil {
		return "", err
	}
	f.output = out
	if f.err != nil {
		return "", f.err
	}
	return out, nil
}

type fakeTranscoder struct {
	calls  int
	inputs []string
	empty  bool
}

func (f *fakeTranscoder) Transcode(_ context.Context, inputPath, outputPath string, _ normalize.Params) error {
	f.calls++
	f.inputs = append(f.inputs, inputPath)
	if f.empty {
		return os.WriteFile(outputPath, nil, 0o644)
	}
	return os.WriteFile(outputPath, []byte("RIFF"), 0o644)
}

type fakeEngine struct {
	text string
	err  error
	reqs []whisper.TranscriptionRequest
}

func (f *fakeEngine) Transcribe(_ context.Context, req whisper.TranscriptionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

type fixture struct {
	service    *Service
	extractor  *fakeExtractor
	transcoder *fakeTranscoder
	engine     *fakeEngine
	scratch    string
}

func newFixture(t *testing.T, engineText string) *fixture {
	t.Helper()

	root := t.TempDir()
	extractor := &fakeExtractor{dir: root}
	transcoder := &fakeTranscoder{}
	engine := &fakeEngine{text: engineText}
	scratch := filepath.Join(root, "whisper", "audio")

	return &fixture{
		service: &Service{
			Models:     staticModels{path: "/models/ggml-tiny.bin"},
			Extractor:  extractor,
			Normalizer: &normalize.Normalizer{Transcoder: transcoder, ScratchDir: scratch},
			Engine:     engine,
		},
		extractor:  extractor,
		transcoder: transcoder,
		engine:     engine,
		scratch:    scratch,
	}
}

func scratchEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestTranscribeCanonicalWAVPassesThrough(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "  hello there \n")
	input := filepath.Join(t.TempDir(), "note.WAV")
	require.NoError(t, os.WriteFile(input, []byte("RIFF"), 0o644))

	text, err := f.service.Transcribe(context.Background(), input, false)
	require.NoError(t, err)
	require.Equal(t, "hello there", text)

	require.Zero(t, f.transcoder.calls)
	require.Zero(t, f.extractor.calls)
	require.Empty(t, scratchEntries(t, f.scratch))
	require.FileExists(t, input)

	require.Len(t, f.engine.reqs, 1)
	require.Equal(t, whisper.TranscriptionRequest{
		AudioPath: input,
		ModelPath: "/models/ggml-tiny.bin",
		Language:  "auto",
		Threads:   4,
	}, f.engine.reqs[0])
}

func TestTranscribeVideoExtractsNormalizesAndCleansUp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "from the video")
	input := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))

	text, err := f.service.Transcribe(context.Background(), input, true)
	require.NoError(t, err)
	require.Equal(t, "from the video", text)

	require.Equal(t, 1, f.extractor.calls)
	require.Equal(t, []string{f.extractor.output}, f.transcoder.inputs)
	require.NoFileExists(t, f.extractor.output)
	require.Empty(t, scratchEntries(t, f.scratch))
	require.FileExists(t, input)

	require.Len(t, f.engine.reqs, 1)
	require.Equal(t, f.scratch, filepath.Dir(f.engine.reqs[0].AudioPath))
}

func TestTranscribeWhitespaceTranscriptIsSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, " \n\t ")
	input := filepath.Join(t.TempDir(), "silence.mov")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))

	text, err := f.service.Transcribe(context.Background(), input, true)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestTranscribeMissingModelStopsBeforeAnyStage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused")
	f.service.Models = model.NewProvisioner(
		model.FSStore{FS: fstest.MapFS{}},
		filepath.Join(t.TempDir(), "models"),
		model.Entry{Name: "tiny", FileName: "ggml-tiny.bin"},
		nil,
	)

	_, err := f.service.Transcribe(context.Background(), "clip.mp4", true)
	require.Error(t, err)
	require.Equal(t, KindModelUnavailable, KindOf(err))
	require.ErrorIs(t, err, model.ErrAssetNotFound)

	require.Zero(t, f.extractor.calls)
	require.Zero(t, f.transcoder.calls)
	require.Empty(t, f.engine.reqs)
}

func TestTranscribeNoAudioTrack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused")
	f.extractor.err = extract.ErrNoAudioTrack

	_, err := f.service.Transcribe(context.Background(), "screen.mp4", true)
	require.Equal(t, KindNoAudioTrack, KindOf(err))
	require.ErrorIs(t, err, extract.ErrNoAudioTrack)
	require.NoFileExists(t, f.extractor.output)
	require.Zero(t, f.transcoder.calls)
}

func TestTranscribeExtractionFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused")
	f.extractor.err = errors.New("read sample: unexpected EOF")

	_, err := f.service.Transcribe(context.Background(), "broken.mp4", true)
	require.Equal(t, KindExtractionFailure, KindOf(err))
	require.NoFileExists(t, f.extractor.output)
}

func TestTranscribeEmptyConversionIsConversionFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "unused")
	f.transcoder.empty = true

	_, err := f.service.Transcribe(context.Background(), "voice.ogg", false)
	require.Equal(t, KindConversionFailure, KindOf(err))
	require.ErrorIs(t, err, normalize.ErrConversion)
	require.Empty(t, scratchEntries(t, f.scratch))
	require.Empty(t, f.engine.reqs)
}

func TestTranscribeInferenceFailureCleansUp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.engine.err = errors.New("engine crashed")
	input := filepath.Join(t.TempDir(), "clip.mkv")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))

	_, err := f.service.Transcribe(context.Background(), input, true)
	require.Equal(t, KindInferenceFailure, KindOf(err))
	require.NoFileExists(t, f.extractor.output)
	require.Empty(t, scratchEntries(t, f.scratch))
}

func TestTranscribeSilenceGateSkipsInference(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "should not run")
	f.service.SilenceGate = true

	input := filepath.Join(t.TempDir(), "quiet.wav")
	require.NoError(t, os.WriteFile(input, silentWAV(1600), 0o644))

	text, err := f.service.Transcribe(context.Background(), input, false)
	require.NoError(t, err)
	require.Empty(t, text)
	require.Empty(t, f.engine.reqs)
}

func TestTranscribeSilenceGateFallsThroughOnUnreadableWAV(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "spoken")
	f.service.SilenceGate = true

	input := filepath.Join(t.TempDir(), "odd.wav")
	require.NoError(t, os.WriteFile(input, []byte("not riff"), 0o644))

	text, err := f.service.Transcribe(context.Background(), input, false)
	require.NoError(t, err)
	require.Equal(t, "spoken", text)
}

func TestTranscribeHonoursLanguageAndThreads(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "hallo")
	f.service.Language = "de"
	f.service.Threads = 8

	_, err := f.service.Transcribe(context.Background(), "a.wav", false)
	require.NoError(t, err)
	require.Equal(t, "de", f.engine.reqs[0].Language)
	require.Equal(t, 8, f.engine.reqs[0].Threads)
}

func silentWAV(samples int) []byte {
	dataSize := samples * 2
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	putLE32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	putLE32(out[16:], 16)
	putLE16(out[20:], 1)
	putLE16(out[22:], 1)
	putLE32(out[24:], 16000)
	putLE32(out[28:], 32000)
	putLE16(out[32:], 2)
	putLE16(out[34:], 16)
	copy(out[36:], "data")
	putLE32(out[40:], uint32(dataSize))
	return out
}

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
