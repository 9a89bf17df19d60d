package reconcile

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestFanOutKeepsOrderAndDrops(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got := fanOut(context.Background(), 2, items, func(_ context.Context, n int) (int, bool) {
		if n%2 == 0 {
			return 0, false
		}
		return n * 10, true
	})

	want := []int{10, 30, 50}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("results mismatch: %+v != %+v", got, want)
	}
}

func TestFanOutHonorsLimit(t *testing.T) {
	var active, peak int32
	items := make([]int, 32)

	fanOut(context.Background(), 4, items, func(_ context.Context, _ int) (struct{}, bool) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
		return struct{}{}, true
	})

	if got := atomic.LoadInt32(&peak); got > 4 {
		t.Fatalf("expected at most 4 concurrent tasks, observed %d", got)
	}
}

func TestFanOutEmptyInput(t *testing.T) {
	got := fanOut(context.Background(), 0, nil, func(_ context.Context, _ int) (int, bool) {
		return 0, true
	})
	if got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([][]string{{"a"}, nil, {"b", "c"}})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("flatten mismatch: %+v != %+v", got, want)
	}
}
