package cache

import (
	"sync"
	"testing"
)

type closeRecorder struct {
	mu     sync.Mutex
	closed int
}

func (c *closeRecorder) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

func TestGetOrComputeMemoizes(t *testing.T) {
	c := New(true)
	defer c.Close()

	calls := 0
	compute := func() interface{} {
		calls++
		return "value"
	}

	if got := c.GetOrCompute("k", compute); got != "value" {
		t.Fatalf("first get = %v", got)
	}
	if got := c.GetOrCompute("k", compute); got != "value" {
		t.Fatalf("second get = %v", got)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestDisabledCacheAlwaysComputes(t *testing.T) {
	c := New(false)

	calls := 0
	for i := 0; i < 3; i++ {
		c.GetOrCompute("k", func() interface{} {
			calls++
			return calls
		})
	}
	if calls != 3 {
		t.Errorf("compute ran %d times, want 3", calls)
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache stored %d entries", c.Len())
	}
}

func TestFirstStoredValueWins(t *testing.T) {
	c := New(true)
	defer c.Close()

	var wg sync.WaitGroup
	results := make([]interface{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrCompute("shared", func() interface{} {
				return &closeRecorder{}
			})
		}(i)
	}
	wg.Wait()

	for i := 1; i < 8; i++ {
		if results[i] != results[0] {
			t.Fatal("readers observed different values for the same key")
		}
	}
}

func TestCloseReleasesEntries(t *testing.T) {
	c := New(true)

	rec := &closeRecorder{}
	c.GetOrCompute("doc", func() interface{} { return rec })
	c.GetOrCompute("plain", func() interface{} { return 42 })

	c.Close()
	if rec.closed != 1 {
		t.Errorf("entry closed %d times, want 1", rec.closed)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Close = %d, want 0", c.Len())
	}
}
