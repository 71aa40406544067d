package whisper

import "context"

// DefaultThreads is the worker thread count handed to the engine per request.
const DefaultThreads = 4

type TranscriptionRequest struct {
	AudioPath string
	ModelPath string
	// Language is an ISO code or "auto" for detection.
	Language string
	Threads  int
}

type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}
