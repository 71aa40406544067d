package cli

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	videoAuto  = "auto"
	videoTrue  = "true"
	videoFalse = "false"
)

// detectVideo sniffs the file header. Anything not reported as video is
// treated as audio and handed to the normalizer directly.
func detectVideo(path string) (bool, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("detect media type of %s: %w", path, err)
	}
	// Only the detected type counts: audio/x-m4a descends from video/mp4.
	return strings.HasPrefix(mtype.String(), "video/"), nil
}

func (a *appState) isVideo(path, mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case videoTrue:
		return true, nil
	case videoFalse:
		return false, nil
	case videoAuto, "":
		detect := a.detectVideoFn
		if detect == nil {
			detect = detectVideo
		}
		return detect(path)
	default:
		return false, fmt.Errorf("invalid --video value %q (want auto, true or false)", mode)
	}
}
