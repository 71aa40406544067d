package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSubmitDoesNotBlockCaller(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	d := New(context.Background(), PipelineFunc(func(context.Context, string, bool) (string, error) {
		<-release
		return "done", nil
	}), 1, nil)

	results := make(chan Result, 3)
	submitted := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			d.Submit(Request{Path: "a.wav", Callback: func(r Result) { results <- r }})
		}
		close(submitted)
	}()

	select {
	case <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked while the only worker was busy")
	}

	close(release)
	d.Wait()
	require.Len(t, results, 3)
}

func TestSubmitDeliversExactlyOnce(t *testing.T) {
	t.Parallel()

	d := New(context.Background(), PipelineFunc(func(_ context.Context, path string, _ bool) (string, error) {
		if path == "bad.mp4" {
			return "", errors.New("boom")
		}
		return "text for " + path, nil
	}), 4, nil)

	var mu sync.Mutex
	seen := map[string]int{}
	ids := map[string]bool{}
	for _, path := range []string{"a.wav", "b.ogg", "bad.mp4", "c.mp3", "d.m4a"} {
		id := d.Submit(Request{Path: path, Callback: func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			seen[r.JobID]++
		}})
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		ids[id] = true
	}
	d.Wait()

	require.Len(t, ids, 5)
	require.Len(t, seen, 5)
	for id, n := range seen {
		require.True(t, ids[id])
		require.Equal(t, 1, n)
	}
}

func TestResultCarriesTextOrError(t *testing.T) {
	t.Parallel()

	failure := errors.New("inference failed")
	d := New(context.Background(), PipelineFunc(func(_ context.Context, path string, isVideo bool) (string, error) {
		if isVideo {
			return "", failure
		}
		return "hello", nil
	}), 0, nil)

	_, ok := d.SubmitAsync("a.wav", false)
	_, bad := d.SubmitAsync("b.mp4", true)

	good := <-ok
	require.NoError(t, good.Err)
	require.Equal(t, "hello", good.Text)
	require.Equal(t, "a.wav", good.Path)

	failed := <-bad
	require.ErrorIs(t, failed.Err, failure)
	require.Empty(t, failed.Text)
}

func TestSubmitAsyncClosesAfterOneResult(t *testing.T) {
	t.Parallel()

	d := New(context.Background(), PipelineFunc(func(context.Context, string, bool) (string, error) {
		return "x", nil
	}), 2, nil)

	id, ch := d.SubmitAsync("a.wav", false)
	first, open := <-ch
	require.True(t, open)
	require.Equal(t, id, first.JobID)

	_, open = <-ch
	require.False(t, open)
}

func TestWorkersBoundConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	d := New(context.Background(), PipelineFunc(func(context.Context, string, bool) (string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return "", nil
	}), 2, nil)

	for i := 0; i < 8; i++ {
		d.Submit(Request{Path: "a.wav"})
	}
	d.Wait()

	require.LessOrEqual(t, peak.Load(), int32(2))
	require.GreaterOrEqual(t, peak.Load(), int32(1))
}

func TestPanickingPipelineStillDeliversFailure(t *testing.T) {
	t.Parallel()

	d := New(context.Background(), PipelineFunc(func(context.Context, string, bool) (string, error) {
		panic("engine exploded")
	}), 1, nil)

	_, ch := d.SubmitAsync("a.wav", false)
	result := <-ch
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "engine exploded")

	_, ch = d.SubmitAsync("b.wav", false)
	require.Error(t, (<-ch).Err)
}

func TestPipelineReceivesDispatcherContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "root")
	d := New(ctx, PipelineFunc(func(ctx context.Context, _ string, _ bool) (string, error) {
		v, _ := ctx.Value(key{}).(string)
		return v, nil
	}), 0, nil)

	_, ch := d.SubmitAsync("a.wav", false)
	require.Equal(t, "root", (<-ch).Text)
}
