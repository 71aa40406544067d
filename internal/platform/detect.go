package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "voxnote"

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}

// HostTarget is the os_arch pair used to lay out bundled binaries.
func HostTarget() string {
	return fmt.Sprintf("%s_%s", runtime.GOOS, NormalizeArch(runtime.GOARCH))
}

func DefaultStorageRootFor(goos, homeDir, xdgDataHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgDataHome != "" {
			return filepath.Join(xdgDataHome, appName), nil
		}
		return filepath.Join(homeDir, ".local", "share", appName), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

// ResolveStorageRoot returns the application-private storage root, honoring
// an explicit override.
func ResolveStorageRoot(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultStorageRootFor(runtime.GOOS, homeDir, os.Getenv("XDG_DATA_HOME"))
}

// ModelsDir is where provisioned models live under the storage root.
func ModelsDir(root string) string {
	return filepath.Join(root, "whisper", "models")
}

// ScratchDir holds normalized audio produced during transcription.
func ScratchDir(root string) string {
	return filepath.Join(root, "whisper", "audio")
}

// DownloadedAssetsDir receives models fetched by `voxnote setup` when no
// bundled asset directory is configured.
func DownloadedAssetsDir(root string) string {
	return filepath.Join(root, "assets")
}

// AssetDirCandidates lists where a release bundle ships its read-only model
// assets, relative to the voxnote executable.
func AssetDirCandidates(executable string) []string {
	binDir := filepath.Dir(executable)
	return []string{
		filepath.Join(binDir, "..", "share", appName, "models"),
		filepath.Join(binDir, "share", appName, "models"),
		filepath.Join(binDir, "packaging", "models"),
	}
}
