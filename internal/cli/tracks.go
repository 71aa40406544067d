package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fmueller/voxnote/internal/container"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTracksCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <file>",
		Short: "List the tracks of a media container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("input file not found: %w", err)
			}

			demuxer := app.demuxerFn
			if demuxer == nil {
				demuxer = app.newDemuxer
			}
			reader, err := demuxer().OpenReader(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer func() {
				if err := reader.Close(); err != nil {
					app.log().Warn("failed to close container reader", zap.Error(err))
				}
			}()

			tracks := reader.Tracks()
			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tracks found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTracks(tracks))
			return nil
		},
	}
}

func renderTracks(tracks []container.Track) string {
	first, hasAudio := container.FirstAudioTrack(tracks)

	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		selected := ""
		if hasAudio && t.Index == first.Index {
			selected = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Index),
			t.MIME,
			t.Codec,
			optionalInt(t.SampleRate),
			optionalInt(t.Channels),
			optionalInt(t.BitDepth),
			selected,
		})
	}

	return renderTable(
		[]string{"#", "MIME", "Codec", "Rate", "Channels", "Bits", "Extract"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func optionalInt(v int) string {
	if v <= 0 {
		return "-"
	}
	return strconv.Itoa(v)
}
