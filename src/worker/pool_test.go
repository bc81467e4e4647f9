package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoReturnsResult(t *testing.T) {
	p := New(1)
	defer p.Close()

	got, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("Do = %d, %v; want 42, nil", got, err)
	}

	wantErr := errors.New("boom")
	_, err = Do(context.Background(), p, func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do error = %v, want %v", err, wantErr)
	}
}

func TestDoHonoursDeadline(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSubmitBackPressure(t *testing.T) {
	p := New(1)

	started := make(chan struct{})
	release := make(chan struct{})
	if !p.Submit(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	}) {
		t.Fatal("first submit dropped")
	}
	<-started

	// The worker is busy; one task fits in the queue, the next is dropped.
	if !p.Submit(context.Background(), func(ctx context.Context) {}) {
		t.Fatal("queued submit dropped")
	}
	if p.Submit(context.Background(), func(ctx context.Context) {}) {
		t.Fatal("expected submit to be dropped while queue is full")
	}

	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) { return 0, nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	close(release)
	p.Close()
}
