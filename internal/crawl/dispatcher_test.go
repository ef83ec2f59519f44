package crawl

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherBoundsConcurrency(t *testing.T) {
	d, err := NewDispatcher(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	var inFlight, maxSeen atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Submit(context.Background(), func(ctx context.Context) {
				cur := inFlight.Add(1)
				for {
					m := maxSeen.Load()
					if cur <= m || maxSeen.CompareAndSwap(m, cur) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				inFlight.Add(-1)
			})
		}()
	}
	wg.Wait()

	if maxSeen.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent jobs, saw %d", maxSeen.Load())
	}
}

func TestDispatcherCloseStopsAcceptingWork(t *testing.T) {
	d, err := NewDispatcher(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d.Close()

	err = d.Submit(context.Background(), func(ctx context.Context) {})
	if err == nil {
		t.Fatal("expected error submitting to a closed dispatcher")
	}
}
