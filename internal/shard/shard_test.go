package shard

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewRoundsToPowerOfTwo(t *testing.T) {
	for _, tc := range []struct{ in, want int }{{0, 64}, {1, 1}, {3, 4}, {64, 64}, {65, 128}} {
		m := New[int](tc.in)
		if len(m.buckets) != tc.want {
			t.Fatalf("New(%d): %d buckets, want %d", tc.in, len(m.buckets), tc.want)
		}
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[string](8)
	m.Set("a", "1")
	if v, ok := m.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q,%v", v, ok)
	}
	if !m.Delete("a") {
		t.Fatalf("Delete(a) should report presence")
	}
	if m.Delete("a") {
		t.Fatalf("second Delete(a) should report absence")
	}
	if m.Has("a") {
		t.Fatalf("a still present")
	}
}

func TestUpdateRemovesWhenNotKept(t *testing.T) {
	m := New[int](4)
	m.Update("n", func(v int, ok bool) (int, bool) {
		if ok {
			t.Fatalf("unexpected existing value %d", v)
		}
		return 1, true
	})
	m.Update("n", func(v int, ok bool) (int, bool) { return v, false })
	if m.Has("n") {
		t.Fatalf("n should be removed")
	}
}

func TestKeysAndLen(t *testing.T) {
	m := New[struct{}](4)
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), struct{}{})
	}
	if m.Len() != 10 {
		t.Fatalf("Len=%d", m.Len())
	}
	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 10 || keys[0] != "k0" || keys[9] != "k9" {
		t.Fatalf("Keys=%v", keys)
	}
}

func TestRangeStopsEarly(t *testing.T) {
	m := New[int](2)
	for i := 0; i < 20; i++ {
		m.Set(fmt.Sprint(i), i)
	}
	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Fatalf("seen=%d want 3", seen)
	}
}

func TestLocksSerializeSameKey(t *testing.T) {
	l := NewLocks(16)
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := l.For("ctr")
			mu.Lock()
			counter++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter=%d", counter)
	}
}
