// ThreatHub - Real-time Security Alert Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/threathub

package cache

import (
	"testing"
	"time"
)

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[int](1000)
	for i := 0; i < 1001; i++ {
		r.Push(i)
	}

	if r.Len() != 1000 {
		t.Fatalf("Expected 1000 items, got %d", r.Len())
	}
	all := r.All()
	if all[0] != 1 {
		t.Errorf("Expected first-inserted item to be evicted, oldest is %d", all[0])
	}
	for i, v := range all {
		if v != i+1 {
			t.Fatalf("Expected relative order preserved at %d: got %d", i, v)
		}
	}
}

func TestRingPushReportsEviction(t *testing.T) {
	t.Parallel()

	r := NewRing[string](2)
	if _, ok := r.Push("a"); ok {
		t.Error("Expected no eviction on first push")
	}
	r.Push("b")
	evicted, ok := r.Push("c")
	if !ok || evicted != "a" {
		t.Errorf("Expected eviction of 'a', got %q (%v)", evicted, ok)
	}
}

func TestRingLast(t *testing.T) {
	t.Parallel()

	r := NewRing[int](5)
	for i := 1; i <= 7; i++ {
		r.Push(i)
	}

	tests := []struct {
		n    int
		want []int
	}{
		{0, []int{}},
		{-1, []int{}},
		{2, []int{6, 7}},
		{5, []int{3, 4, 5, 6, 7}},
		{50, []int{3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		got := r.Last(tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("Last(%d) length = %d, want %d", tt.n, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Last(%d) = %v, want %v", tt.n, got, tt.want)
				break
			}
		}
	}
}

func TestRingZeroCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[int](0)
	if r.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", r.Cap())
	}
	r.Push(1)
	r.Push(2)
	if got := r.All(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Expected [2], got %v", got)
	}
}

func TestSlidingWindowCounter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	sw := newSlidingWindowCounter(time.Minute, 6, clock)

	sw.Increment(3)
	now = now.Add(30 * time.Second)
	sw.Increment(2)
	if got := sw.Count(); got != 5 {
		t.Errorf("Expected 5 within window, got %d", got)
	}

	now = now.Add(40 * time.Second)
	if got := sw.Count(); got != 2 {
		t.Errorf("Expected first events to age out leaving 2, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	if got := sw.Count(); got != 0 {
		t.Errorf("Expected empty window, got %d", got)
	}
}
