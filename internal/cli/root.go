package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fmueller/voxnote/internal/config"
	"github.com/fmueller/voxnote/internal/container"
	"github.com/fmueller/voxnote/internal/dispatch"
	"github.com/fmueller/voxnote/internal/logging"
	"github.com/fmueller/voxnote/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	configPath string
	noProgress bool
	flags      flagOverrides

	cfg    *config.Config
	logger *zap.Logger

	pipelineFn    func(ctx context.Context) (dispatch.Pipeline, func(), error)
	demuxerFn     func() container.Demuxer
	detectVideoFn func(path string) (bool, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{}
	app.pipelineFn = app.buildPipeline
	app.demuxerFn = app.newDemuxer
	app.detectVideoFn = detectVideo
	return newRootCmd(app)
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voxnote",
		Short:         "Transcribe audio and video files on-device with whisper",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.prepare(cmd)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.configPath, "config", "", "Config file (default ~/.config/voxnote/config.toml)")
	pf.BoolVar(&app.flags.verbose, "verbose", false, "Enable verbose logs")
	pf.BoolVar(&app.flags.jsonLogs, "json", false, "Enable JSON logging")
	pf.StringVar(&app.flags.logFile, "log-file", "", "Also write logs to this file")
	pf.BoolVar(&app.noProgress, "no-progress", false, "Disable progress indicators")
	pf.StringVar(&app.flags.storageRoot, "storage-root", "", "Directory for provisioned models and scratch audio")
	pf.StringVar(&app.flags.assetDir, "asset-dir", "", "Directory holding bundled ggml model files")
	pf.StringVar(&app.flags.model, "model", "", "Model name (tiny|base|small|medium|large-v3) or ggml-*.bin asset name")
	pf.StringVar(&app.flags.ffprobe, "ffprobe", "", "ffprobe executable")

	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newTracksCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// prepare loads the config file, applies flags on top and builds the logger.
func (a *appState) prepare(cmd *cobra.Command) error {
	cfg, path, exists, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	a.flags.apply(cmd.Flags().Changed, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Verbose: cfg.Logging.Verbose,
		JSON:    cfg.Logging.JSON,
		File:    cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	logger.Debug("configuration loaded", zap.String("path", path), zap.Bool("file_found", exists))
	return nil
}

func (a *appState) config() *config.Config {
	if a.cfg == nil {
		cfg := config.Default()
		a.cfg = &cfg
	}
	return a.cfg
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
