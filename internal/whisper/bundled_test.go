package whisper

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fmueller/voxnote/internal/platform"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveBundledEnginePathFindsLibexecSibling(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	engineDir := filepath.Join(root, "libexec", "whisper")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.MkdirAll(engineDir, 0o755))

	voxnote := filepath.Join(binDir, "voxnote")
	require.NoError(t, os.WriteFile(voxnote, []byte(""), 0o755))

	enginePath := filepath.Join(engineDir, engineBinaryName())
	require.NoError(t, os.WriteFile(enginePath, []byte(""), 0o755))

	resolved, err := ResolveBundledEnginePath(voxnote)
	require.NoError(t, err)
	require.Equal(t, enginePath, resolved)
}

func TestResolveBundledEnginePathMissing(t *testing.T) {
	t.Parallel()

	voxnote := filepath.Join(t.TempDir(), "bin", "voxnote")
	require.NoError(t, os.MkdirAll(filepath.Dir(voxnote), 0o755))
	require.NoError(t, os.WriteFile(voxnote, []byte(""), 0o755))

	_, err := ResolveBundledEnginePath(voxnote)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bundled whisper engine not found")
}

func TestResolveBundledEnginePathFindsPackagingPathForLocalDev(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	voxnote := filepath.Join(root, "voxnote")
	require.NoError(t, os.WriteFile(voxnote, []byte(""), 0o755))

	targetDir := filepath.Join(root, "packaging", "whisper", platform.HostTarget())
	require.NoError(t, os.MkdirAll(targetDir, 0o755))
	enginePath := filepath.Join(targetDir, engineBinaryName())
	require.NoError(t, os.WriteFile(enginePath, []byte(""), 0o755))

	resolved, err := ResolveBundledEnginePath(voxnote)
	require.NoError(t, err)
	require.Equal(t, enginePath, resolved)
}

func TestBuildArgsDefaultsToAutoLanguageAndFourThreads(t *testing.T) {
	t.Parallel()

	args := buildArgs(TranscriptionRequest{AudioPath: "in.wav", ModelPath: "m.bin"}, "/tmp/out")
	require.Equal(t, []string{
		"-m", "m.bin", "-f", "in.wav", "-nt", "-otxt", "-of", "/tmp/out",
		"-l", "auto", "-t", "4",
	}, args)
}

func TestBuildArgsHonoursLanguageAndThreads(t *testing.T) {
	t.Parallel()

	args := buildArgs(TranscriptionRequest{AudioPath: "in.wav", ModelPath: "m.bin", Language: " DE ", Threads: 2}, "/tmp/out")
	require.Equal(t, []string{"-l", "de", "-t", "2"}, args[len(args)-4:])
}

func TestNewEngineAtRejectsNonExecutable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "whisper-cli")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	_, err := NewEngineAt(path, nil)
	if runtime.GOOS == "windows" {
		require.NoError(t, err)
		return
	}
	require.Error(t, err)
	require.Contains(t, err.Error(), "not executable")
}

func TestBundledEngineTranscribeReadsTextOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	stub := filepath.Join(dir, "whisper-cli")
	script := `#!/bin/sh
echo "$@" > "` + argsFile + `"
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then out="$2"; fi
  shift
done
printf '  hello world \n' > "$out.txt"
`
	require.NoError(t, os.WriteFile(stub, []byte(script), 0o755))

	engine, err := NewEngineAt(stub, zap.NewNop())
	require.NoError(t, err)

	text, err := engine.Transcribe(context.Background(), TranscriptionRequest{
		AudioPath: "clip.wav",
		ModelPath: "ggml-tiny.bin",
		Language:  "auto",
		Threads:   4,
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Contains(t, string(recorded), "-l auto -t 4")
}

func TestBundledEngineTranscribeReportsEngineFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}

	stub := filepath.Join(t.TempDir(), "whisper-cli")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 'failed to load model' >&2\nexit 3\n"), 0o755))

	engine, err := NewEngineAt(stub, nil)
	require.NoError(t, err)

	_, err = engine.Transcribe(context.Background(), TranscriptionRequest{AudioPath: "a.wav", ModelPath: "m.bin"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load model")
}

func TestBundledEngineTranscribeRequiresPaths(t *testing.T) {
	t.Parallel()

	engine := &BundledEngine{Executable: "/nonexistent", Logger: zap.NewNop()}
	_, err := engine.Transcribe(context.Background(), TranscriptionRequest{ModelPath: "m.bin"})
	require.EqualError(t, err, "audio path is required")

	_, err = engine.Transcribe(context.Background(), TranscriptionRequest{AudioPath: "a.wav"})
	require.EqualError(t, err, "model path is required")
}

func TestIsMissingSharedLibraryError(t *testing.T) {
	t.Parallel()

	require.True(t, isMissingSharedLibraryError("error while loading shared libraries: libwhisper.so.1: cannot open shared object file"))
	require.True(t, isMissingSharedLibraryError("dyld: Library not loaded: @rpath/libwhisper.dylib"))
	require.False(t, isMissingSharedLibraryError("some other runtime error"))
}

func TestIsIllegalInstructionError(t *testing.T) {
	t.Parallel()

	require.True(t, isIllegalInstructionError("signal: illegal instruction (core dumped)"))
	require.True(t, isIllegalInstructionError("signal: illegal instruction"))
	require.False(t, isIllegalInstructionError(""))
}

func TestCPPEngineUnavailableWithoutBuildTag(t *testing.T) {
	t.Parallel()

	if CPPAvailable {
		t.Skip("built with whispercpp")
	}
	_, err := NewCPPEngine(nil)
	require.Error(t, err)
}
