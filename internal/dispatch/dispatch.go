// Package dispatch runs transcription jobs off the caller's goroutine and
// delivers each result exactly once.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline is the per-job work, normally (*transcribe.Service).Transcribe.
type Pipeline interface {
	Transcribe(ctx context.Context, path string, isVideo bool) (string, error)
}

type PipelineFunc func(ctx context.Context, path string, isVideo bool) (string, error)

func (f PipelineFunc) Transcribe(ctx context.Context, path string, isVideo bool) (string, error) {
	return f(ctx, path, isVideo)
}

type Result struct {
	JobID string
	Path  string
	Text  string
	Err   error
}

// Callback receives a job's result on the worker goroutine.
type Callback func(Result)

type Request struct {
	Path     string
	IsVideo  bool
	Callback Callback
}

type Dispatcher struct {
	pipeline Pipeline
	logger   *zap.Logger
	slots    chan struct{}
	ctx      context.Context
	wg       sync.WaitGroup
}

// New builds a dispatcher. workers <= 0 runs every job immediately on its
// own goroutine; otherwise at most workers jobs run at once and the rest wait
// for a slot.
func New(ctx context.Context, pipeline Pipeline, workers int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d := &Dispatcher{pipeline: pipeline, logger: logger, ctx: ctx}
	if workers > 0 {
		d.slots = make(chan struct{}, workers)
	}
	return d
}

// Submit schedules req and returns its job id without blocking.
func (d *Dispatcher) Submit(req Request) string {
	id := uuid.NewString()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.acquire()
		defer d.release()

		result := d.run(id, req)
		if req.Callback != nil {
			req.Callback(result)
		}
	}()

	d.logger.Debug("job submitted", zap.String("job_id", id), zap.String("path", req.Path))
	return id
}

// SubmitAsync schedules a job and returns a channel that yields its single
// result and is then closed.
func (d *Dispatcher) SubmitAsync(path string, isVideo bool) (string, <-chan Result) {
	ch := make(chan Result, 1)
	id := d.Submit(Request{
		Path:    path,
		IsVideo: isVideo,
		Callback: func(r Result) {
			ch <- r
			close(ch)
		},
	})
	return id, ch
}

// Wait blocks until every submitted job has delivered its result.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(id string, req Request) (result Result) {
	result = Result{JobID: id, Path: req.Path}
	logger := d.logger.With(zap.String("job_id", id), zap.String("path", req.Path))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", zap.Any("panic", r))
			result.Text = ""
			result.Err = fmt.Errorf("transcription job panicked: %v", r)
		}
	}()

	logger.Debug("job started")
	text, err := d.pipeline.Transcribe(d.ctx, req.Path, req.IsVideo)
	if err != nil {
		logger.Warn("job failed", zap.Error(err))
		result.Err = err
		return result
	}

	logger.Debug("job finished")
	result.Text = text
	return result
}

func (d *Dispatcher) acquire() {
	if d.slots != nil {
		d.slots <- struct{}{}
	}
}

func (d *Dispatcher) release() {
	if d.slots != nil {
		<-d.slots
	}
}
