package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fmueller/voxnote/internal/download"
	"github.com/fmueller/voxnote/internal/model"
	"github.com/fmueller/voxnote/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	var (
		force       bool
		checksumURL string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download and verify speech model assets",
		Long: "Download a whisper model into the asset directory. The model is copied " +
			"into the storage root the first time a transcription needs it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.config()

			entry, err := model.Resolve(cfg.Model.Name)
			if err != nil {
				return err
			}
			if cfg.Model.SHA256 != "" {
				entry.SHA256 = cfg.Model.SHA256
			}
			if entry.URL == "" {
				return fmt.Errorf("model %s has no download URL", entry.Name)
			}

			dir, err := app.setupAssetDir()
			if err != nil {
				return err
			}
			destination := filepath.Join(dir, entry.FileName)

			if entry.SHA256 == "" && checksumURL == "" {
				app.log().Warn("no pinned checksum for model; the download will not be verified", zap.String("model", entry.Name))
			}

			app.log().Info("downloading model", zap.String("model", entry.Name), zap.String("path", destination))
			fetched, err := download.DownloadFile(cmd.Context(), download.Options{
				URL:            entry.URL,
				Destination:    destination,
				ExpectedSHA256: entry.SHA256,
				ChecksumURL:    checksumURL,
				Description:    "downloading " + entry.FileName,
				NoProgress:     !app.progressEnabled(),
				Force:          force,
				Logger:         app.log().Named("download"),
			})
			if err != nil {
				return fmt.Errorf("download model %s: %w", entry.Name, err)
			}

			if !fetched {
				fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", entry.Name, destination)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", entry.Name, destination)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Download even if a verified copy exists")
	cmd.Flags().StringVar(&checksumURL, "checksum-url", "", "URL of a sha256 listing used when the model has no pinned checksum")
	return cmd
}

// setupAssetDir is the configured asset directory, or the downloads
// directory under the storage root.
func (a *appState) setupAssetDir() (string, error) {
	cfg := a.config()
	if cfg.Paths.AssetDir != "" {
		return cfg.Paths.AssetDir, nil
	}

	root, err := platform.ResolveStorageRoot(cfg.Paths.StorageRoot)
	if err != nil {
		return "", err
	}
	return platform.DownloadedAssetsDir(root), nil
}
