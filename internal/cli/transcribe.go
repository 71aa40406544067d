package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fmueller/voxnote/internal/dispatch"
	"github.com/fmueller/voxnote/internal/transcribe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTranscribeCmd(app *appState) *cobra.Command {
	var videoMode string

	cmd := &cobra.Command{
		Use:   "transcribe <file>...",
		Short: "Transcribe audio or video files",
		Long: "Transcribe audio or video files. Each file runs as its own job; " +
			"video files have their first audio track copied out before conversion.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscribe(cmd, args, videoMode)
		},
	}

	f := cmd.Flags()
	f.StringVar(&videoMode, "video", videoAuto, "Treat inputs as video: auto|true|false")
	f.StringVar(&app.flags.engine, "engine", "", "Inference backend: cli|cpp")
	f.StringVar(&app.flags.whisperPath, "whisper-path", "", "whisper-cli executable (default: bundled)")
	f.StringVar(&app.flags.language, "language", "", "Language code (auto|en|de|...)")
	f.IntVar(&app.flags.threads, "threads", 0, "Inference threads per job")
	f.IntVar(&app.flags.workers, "workers", 0, "Concurrent jobs; 0 runs all at once")
	f.BoolVar(&app.flags.silenceGate, "silence-gate", false, "Skip inference for near-silent audio")
	f.Float64Var(&app.flags.silenceDBFS, "silence-threshold-dbfs", -65, "Silence gate threshold in dBFS")
	f.StringVar(&app.flags.ffmpeg, "ffmpeg", "", "ffmpeg executable")

	return cmd
}

type job struct {
	path    string
	results <-chan dispatch.Result
}

func (a *appState) runTranscribe(cmd *cobra.Command, paths []string, videoMode string) error {
	ctx := cmd.Context()
	logger := a.log()

	type input struct {
		path    string
		isVideo bool
	}
	inputs := make([]input, 0, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("input file not found: %w", err)
		}
		isVideo, err := a.isVideo(p, videoMode)
		if err != nil {
			return err
		}
		inputs = append(inputs, input{path: p, isVideo: isVideo})
	}

	build := a.pipelineFn
	if build == nil {
		build = a.buildPipeline
	}
	pipeline, release, err := build(ctx)
	if err != nil {
		return err
	}
	defer release()

	dispatcher := dispatch.New(ctx, pipeline, a.config().Dispatch.Workers, logger.Named("dispatch"))

	stopSpinner := startSpinner(a.progressEnabled(), cmd.ErrOrStderr(), spinnerLabel(len(inputs)))
	jobs := make([]job, 0, len(inputs))
	for _, in := range inputs {
		id, ch := dispatcher.SubmitAsync(in.path, in.isVideo)
		logger.Info("transcribing...", zap.String("job_id", id), zap.String("input", in.path), zap.Bool("video", in.isVideo))
		jobs = append(jobs, job{path: in.path, results: ch})
	}
	dispatcher.Wait()
	stopSpinner()

	out := cmd.OutOrStdout()
	var failures []error
	for _, j := range jobs {
		result := <-j.results
		if result.Err != nil {
			failures = append(failures, result.Err)
			if len(jobs) > 1 {
				reportFailure(cmd, j.path, result.Err)
			}
			continue
		}

		if isBlankTranscript(result.Text) {
			logger.Warn(noSpeechHint(j.path))
		}
		if len(jobs) == 1 {
			fmt.Fprintln(out, result.Text)
		} else {
			fmt.Fprintf(out, "%s: %s\n", j.path, result.Text)
		}
	}

	switch {
	case len(failures) == 0:
		return nil
	case len(jobs) == 1:
		return failures[0]
	default:
		return fmt.Errorf("%d of %d transcriptions failed", len(failures), len(jobs))
	}
}

func reportFailure(cmd *cobra.Command, path string, err error) {
	var terr *transcribe.Error
	if errors.As(err, &terr) && !terr.Short() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n  %v\n", path, terr.Kind, terr.Err)
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
}

func spinnerLabel(n int) string {
	if n == 1 {
		return "Transcribing"
	}
	return fmt.Sprintf("Transcribing %d files", n)
}
