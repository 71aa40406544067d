package cli

import (
	"context"
	"fmt"

	"github.com/fmueller/voxnote/internal/config"
	"github.com/fmueller/voxnote/internal/container"
	"github.com/fmueller/voxnote/internal/container/ffprobe"
	"github.com/fmueller/voxnote/internal/container/matroska"
	"github.com/fmueller/voxnote/internal/dispatch"
	"github.com/fmueller/voxnote/internal/extract"
	"github.com/fmueller/voxnote/internal/model"
	"github.com/fmueller/voxnote/internal/normalize"
	"github.com/fmueller/voxnote/internal/platform"
	"github.com/fmueller/voxnote/internal/transcribe"
	"github.com/fmueller/voxnote/internal/whisper"
	"go.uber.org/zap"
)

// buildPipeline wires the transcription service from the loaded config. The
// returned release func frees engine resources once all jobs are done.
func (a *appState) buildPipeline(_ context.Context) (dispatch.Pipeline, func(), error) {
	cfg := a.config()
	logger := a.log()

	root, err := platform.ResolveStorageRoot(cfg.Paths.StorageRoot)
	if err != nil {
		return nil, nil, err
	}

	provisioner, err := a.newProvisioner(root)
	if err != nil {
		return nil, nil, err
	}

	engine, release, err := newEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	service := &transcribe.Service{
		Models: provisioner,
		Extractor: &extract.Extractor{
			Demuxer: a.demuxerFn(),
			Muxer:   matroska.Muxer{},
			Logger:  logger.Named("extract"),
		},
		Normalizer: &normalize.Normalizer{
			Transcoder: normalize.FFmpeg{Binary: cfg.Tools.FFmpeg},
			ScratchDir: platform.ScratchDir(root),
			Logger:     logger.Named("normalize"),
		},
		Engine:               engine,
		Language:             cfg.Engine.Language,
		Threads:              cfg.Engine.Threads,
		SilenceGate:          cfg.Engine.SilenceGate,
		SilenceThresholdDBFS: cfg.Engine.SilenceThresholdDBFS,
		Logger:               logger.Named("transcribe"),
	}
	return service, release, nil
}

func (a *appState) newProvisioner(root string) (*model.Provisioner, error) {
	cfg := a.config()

	entry, err := model.Resolve(cfg.Model.Name)
	if err != nil {
		return nil, err
	}
	if cfg.Model.SHA256 != "" {
		entry.SHA256 = cfg.Model.SHA256
	}

	var stores model.ChainStore
	if dir, err := model.ResolveAssetDir(cfg.Paths.AssetDir); err == nil {
		stores = append(stores, model.DirStore{Dir: dir})
	} else {
		a.log().Debug("no bundled asset directory", zap.Error(err))
	}
	stores = append(stores, model.DirStore{Dir: platform.DownloadedAssetsDir(root)})

	return model.NewProvisioner(stores, platform.ModelsDir(root), entry, a.log().Named("model")), nil
}

func (a *appState) newDemuxer() container.Demuxer {
	return ffprobe.Demuxer{Binary: a.config().Tools.FFprobe, Logger: a.log().Named("ffprobe")}
}

func newEngine(cfg *config.Config, logger *zap.Logger) (whisper.Engine, func(), error) {
	switch cfg.Engine.Backend {
	case config.BackendCPP:
		engine, err := whisper.NewCPPEngine(logger.Named("whisper"))
		if err != nil {
			return nil, nil, err
		}
		return engine, func() {
			if err := engine.Close(); err != nil {
				logger.Warn("failed to release whisper models", zap.Error(err))
			}
		}, nil
	case config.BackendCLI:
		engine, err := whisper.NewEngineAt(cfg.Engine.WhisperPath, logger.Named("whisper"))
		if err != nil {
			return nil, nil, err
		}
		return engine, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine backend %q", cfg.Engine.Backend)
	}
}
