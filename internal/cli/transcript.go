package cli

import "strings"

// blankAudioToken is what whisper emits for segments without speech.
const blankAudioToken = "[BLANK_AUDIO]"

func isBlankTranscript(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return true
	}

	return strings.EqualFold(trimmed, blankAudioToken)
}

func noSpeechHint(path string) string {
	return "No speech detected in " + path + "."
}
