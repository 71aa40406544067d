package transcribe

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by the stage that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindModelUnavailable
	KindNoAudioTrack
	KindExtractionFailure
	KindConversionFailure
	KindInferenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindModelUnavailable:
		return "model not available"
	case KindNoAudioTrack:
		return "no audio track"
	case KindExtractionFailure:
		return "audio extraction failed"
	case KindConversionFailure:
		return "audio conversion failed"
	case KindInferenceFailure:
		return "transcription failed"
	default:
		return "unknown failure"
	}
}

// shortMessageLimit is the longest message still suitable for an inline notice.
const shortMessageLimit = 45

type Error struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Short reports whether the message is brief enough for an inline notice
// rather than a blocking dialog.
func (e *Error) Short() bool {
	return len(e.Error()) <= shortMessageLimit
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

func stageError(kind Kind, stage string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}
