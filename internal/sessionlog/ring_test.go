package sessionlog

import (
	"fmt"
	"sync"
	"testing"
)

func messages(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestRing(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		adds        int
		want        []string
		wantDropped uint64
	}{
		{name: "empty", size: 3, adds: 0, want: []string{}},
		{name: "partially filled", size: 3, adds: 2, want: []string{"m0", "m1"}},
		{name: "exactly full", size: 3, adds: 3, want: []string{"m0", "m1", "m2"}},
		{name: "wrapped once", size: 3, adds: 4, want: []string{"m1", "m2", "m3"}, wantDropped: 1},
		{name: "wrapped many", size: 3, adds: 8, want: []string{"m5", "m6", "m7"}, wantDropped: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.size)
			for i := range tt.adds {
				r.Add(Entry{Message: fmt.Sprintf("m%d", i)})
			}
			got := messages(r.Snapshot())
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("Snapshot() = %v, want %v", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
			if r.Dropped() != tt.wantDropped {
				t.Fatalf("Dropped() = %d, want %d", r.Dropped(), tt.wantDropped)
			}
		})
	}
}

func TestNewRingDefaultSize(t *testing.T) {
	r := NewRing(0)
	for i := range DefaultRingSize + 1 {
		r.Add(Entry{Message: fmt.Sprintf("m%d", i)})
	}
	if r.Len() != DefaultRingSize {
		t.Fatalf("Len() = %d, want %d", r.Len(), DefaultRingSize)
	}
}

func TestRingSnapshotIsCopy(t *testing.T) {
	r := NewRing(2)
	r.Add(Entry{Message: "first"})
	snap := r.Snapshot()
	snap[0].Message = "changed"
	if got := r.Snapshot()[0].Message; got != "first" {
		t.Fatalf("ring entry = %q, mutated through snapshot", got)
	}
}

func TestRingConcurrentAdd(t *testing.T) {
	r := NewRing(16)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Go(func() {
			for i := range 100 {
				r.Add(Entry{Message: fmt.Sprintf("w%d-%d", w, i)})
				_ = r.Snapshot()
			}
		})
	}
	wg.Wait()
	if r.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", r.Len())
	}
	if r.Dropped() != 800-16 {
		t.Fatalf("Dropped() = %d, want %d", r.Dropped(), 800-16)
	}
}
