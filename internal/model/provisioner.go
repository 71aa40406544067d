// Package model provisions the whisper model used for on-device
// transcription, copying it out of the bundled asset store on first use.
package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fmueller/voxnote/internal/download"
	"go.uber.org/zap"
)

const copyBufferSize = 8 << 10

// Provisioner makes sure a model file exists under ModelsDir and remembers
// where it is. Concurrent first-time calls may copy redundantly; the copy is
// content-identical and lands via rename, so the last writer wins harmlessly.
type Provisioner struct {
	Store          AssetStore
	ModelsDir      string
	FileName       string
	ExpectedSHA256 string
	Logger         *zap.Logger

	cached atomic.Pointer[string]
}

func NewProvisioner(store AssetStore, modelsDir string, entry Entry, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		Store:          store,
		ModelsDir:      modelsDir,
		FileName:       entry.FileName,
		ExpectedSHA256: entry.SHA256,
		Logger:         logger,
	}
}

// Resolve returns the absolute path of a model file proven to exist.
func (p *Provisioner) Resolve(ctx context.Context) (string, error) {
	if cached := p.cached.Load(); cached != nil {
		if _, err := os.Stat(*cached); err == nil {
			return *cached, nil
		}
		p.cached.CompareAndSwap(cached, nil)
	}

	if strings.TrimSpace(p.FileName) == "" {
		return "", errors.New("model file name is not configured")
	}
	if strings.TrimSpace(p.ModelsDir) == "" {
		return "", errors.New("models directory is not configured")
	}

	dir, err := filepath.Abs(p.ModelsDir)
	if err != nil {
		return "", fmt.Errorf("resolve models directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create models directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, filepath.Base(p.FileName))
	if _, err := os.Stat(target); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat model file: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p.log().Info("model not provisioned, copying from bundled assets", zap.String("model", p.FileName), zap.String("destination", target))
		if err := p.copyFromStore(target); err != nil {
			return "", err
		}
	}

	p.cached.Store(&target)
	return target, nil
}

// Cached reports the last successfully resolved path without touching the
// filesystem.
func (p *Provisioner) Cached() (string, bool) {
	if cached := p.cached.Load(); cached != nil {
		return *cached, true
	}
	return "", false
}

func (p *Provisioner) copyFromStore(target string) error {
	if p.Store == nil {
		return errors.New("model asset store is not configured")
	}

	in, err := p.Store.Open(p.FileName)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.CopyBuffer(tmp, in, make([]byte, copyBufferSize)); err != nil {
		return fmt.Errorf("copy model asset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}

	if p.ExpectedSHA256 != "" {
		if err := download.VerifyFileChecksum(tmpPath, p.ExpectedSHA256); err != nil {
			return fmt.Errorf("verify model asset: %w", err)
		}
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("move model into place: %w", err)
	}

	success = true
	return nil
}

func (p *Provisioner) log() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
