package jobqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcher_RunsJobDetachedFromCaller(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(DispatcherConfig{Workers: 2}, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	proceed := make(chan struct{})
	ctxErr := make(chan error, 1)

	jobID, err := d.Dispatch(ctx, "ingest", func(jobCtx context.Context) {
		close(started)
		<-proceed
		ctxErr <- jobCtx.Err()
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	<-started
	// Cancelling the request context must not cancel the running job.
	cancel()
	close(proceed)

	select {
	case got := <-ctxErr:
		if got != nil {
			t.Fatalf("job context was cancelled with the caller: %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never finished")
	}
}

func TestDispatcher_SaturatedPoolFailsFast(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(DispatcherConfig{Workers: 1}, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer d.Close()

	block := make(chan struct{})
	defer close(block)

	if _, err := d.Dispatch(context.Background(), "ingest", func(context.Context) { <-block }); err != nil {
		t.Fatalf("dispatch first job: %v", err)
	}

	_, err = d.Dispatch(context.Background(), "ingest", func(context.Context) {})
	if !errors.Is(err, ErrSaturated) {
		t.Fatalf("expected saturation error, got %v", err)
	}
}

func TestDispatcher_ValidatesJobName(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(DispatcherConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer d.Close()

	if _, err := d.Dispatch(context.Background(), "  ", func(context.Context) {}); err == nil {
		t.Fatal("expected an error for a blank job name")
	}
	if _, err := d.Dispatch(context.Background(), "ingest", nil); err == nil {
		t.Fatal("expected an error for a nil callback")
	}
}

func TestDispatcher_MintsDistinctJobIDs(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(DispatcherConfig{Workers: 4}, nil, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	defer d.Close()

	first, err := d.Dispatch(context.Background(), "ingest", func(context.Context) {})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	second, err := d.Dispatch(context.Background(), "ingest", func(context.Context) {})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if first == second {
		t.Fatalf("job ids must be unique: %s", first)
	}
}
