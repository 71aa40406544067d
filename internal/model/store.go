package model

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fmueller/voxnote/internal/platform"
)

// ErrAssetNotFound is returned when the bundled store has no asset of the
// requested name.
var ErrAssetNotFound = errors.New("model asset not found")

// AssetStore is the read-only bundle that ships model files.
type AssetStore interface {
	Open(name string) (io.ReadCloser, error)
}

// DirStore serves assets from a directory on disk.
type DirStore struct {
	Dir string
}

func (d DirStore) Open(name string) (io.ReadCloser, error) {
	if strings.TrimSpace(d.Dir) == "" {
		return nil, errors.New("asset directory is not configured")
	}
	f, err := os.Open(filepath.Join(d.Dir, filepath.Base(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", ErrAssetNotFound, name, d.Dir)
		}
		return nil, fmt.Errorf("open asset %s: %w", name, err)
	}
	return f, nil
}

// FSStore serves assets from any fs.FS, such as an embed.FS.
type FSStore struct {
	FS fs.FS
}

func (s FSStore) Open(name string) (io.ReadCloser, error) {
	if s.FS == nil {
		return nil, errors.New("asset filesystem is not configured")
	}
	f, err := s.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("open asset %s: %w", name, err)
	}
	return f, nil
}

// ChainStore tries each store in order and returns the first asset found.
type ChainStore []AssetStore

func (c ChainStore) Open(name string) (io.ReadCloser, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: %s (no asset stores configured)", ErrAssetNotFound, name)
	}

	var notFound []error
	for _, store := range c {
		rc, err := store.Open(name)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrAssetNotFound) {
			return nil, err
		}
		notFound = append(notFound, err)
	}
	return nil, errors.Join(notFound...)
}

// ResolveAssetDir locates the bundled asset directory. VOXNOTE_ASSET_DIR and
// an explicit override win over the release layout next to the executable.
func ResolveAssetDir(override string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return filepath.Clean(override), nil
	}
	if env := strings.TrimSpace(os.Getenv("VOXNOTE_ASSET_DIR")); env != "" {
		return filepath.Clean(env), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve voxnote executable path: %w", err)
	}

	return FindAssetDir(exe)
}

func FindAssetDir(executable string) (string, error) {
	for _, candidate := range platform.AssetDirCandidates(executable) {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("bundled model assets not found near %s; run `voxnote setup` or set VOXNOTE_ASSET_DIR", executable)
}
