package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if id == "" {
		t.Fatal("New returned an empty ID")
	}

	// 12 bytes in unpadded base32 is a fixed 20 characters
	if len(id) != 20 {
		t.Errorf("expected ID length 20, got %d (%q)", len(id), id)
	}

	const alphabet = "abcdefghijklmnopqrstuvwxyz234567"
	for _, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("ID %q contains character %q outside the base32 alphabet", id, c)
		}
	}
}

func TestNewUniqueness(t *testing.T) {
	const count = 10000
	seen := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestNewConcurrent(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[string]bool, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]string, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids = append(ids, New())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if seen[id] {
					t.Errorf("duplicate ID generated concurrently: %q", id)
				}
				seen[id] = true
			}
		}()
	}
	wg.Wait()
}

func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		New()
	}
}
