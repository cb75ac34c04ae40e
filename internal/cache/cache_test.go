package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// testClock is a manually advanced clock for deterministic TTL tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, capacity int, ttl time.Duration) (*Cache[string], *testClock) {
	t.Helper()
	c, err := New[string](capacity, ttl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	clock := newTestClock()
	c.now = clock.Now
	return c, clock
}

func mustPut(t *testing.T, c *Cache[string], key, value string, at time.Time) {
	t.Helper()
	if err := c.Put(key, NewEntry(value, at)); err != nil {
		t.Fatalf("Put(%q) error = %v", key, err)
	}
}

// TestNew_InvalidArguments verifies that construction rejects non-positive
// capacity and TTL.
func TestNew_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		ttl      time.Duration
		wantErr  error
	}{
		{"zero capacity", 0, time.Minute, ErrInvalidCapacity},
		{"negative capacity", -1, time.Minute, ErrInvalidCapacity},
		{"zero ttl", 10, 0, ErrInvalidTTL},
		{"negative ttl", 10, -time.Second, ErrInvalidTTL},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New[string](tc.capacity, tc.ttl); err != tc.wantErr {
				t.Fatalf("New(%d, %v) error = %v, want %v", tc.capacity, tc.ttl, err, tc.wantErr)
			}
		})
	}
}

// TestCache_PutGet verifies basic store and retrieve round trips.
func TestCache_PutGet(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, "london", "rainy", clock.Now())

	entry, ok := c.Get("london")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if entry.Value != "rainy" {
		t.Errorf("Get() value = %q, want %q", entry.Value, "rainy")
	}
}

// TestCache_Put_NilEntry verifies that storing a nil entry is rejected as a
// programmer error rather than silently accepted.
func TestCache_Put_NilEntry(t *testing.T) {
	c, _ := newTestCache(t, 10, 10*time.Minute)

	if err := c.Put("london", nil); err != ErrNilEntry {
		t.Fatalf("Put(nil) error = %v, want %v", err, ErrNilEntry)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after rejected Put, want 0", c.Len())
	}
}

// TestCache_KeyNormalization verifies that lookups are case- and
// whitespace-insensitive: "  New York  ", "new york" and "NEW YORK" all
// resolve to the same entry.
func TestCache_KeyNormalization(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, "  New York  ", "cloudy", clock.Now())

	for _, key := range []string{"new york", "NEW YORK", " New York"} {
		entry, ok := c.Get(key)
		if !ok {
			t.Fatalf("Get(%q) ok = false, want true", key)
		}
		if entry.Value != "cloudy" {
			t.Errorf("Get(%q) value = %q, want %q", key, entry.Value, "cloudy")
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (all spellings collide on one entry)", c.Len())
	}
}

// TestCache_CapacityInvariant verifies that Len never exceeds capacity no
// matter how many distinct keys are inserted.
func TestCache_CapacityInvariant(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	for i := 1; i <= 25; i++ {
		mustPut(t, c, fmt.Sprintf("city%d", i), "clear", clock.Now())
		if c.Len() > 10 {
			t.Fatalf("Len() = %d after insert %d, exceeds capacity 10", c.Len(), i)
		}
	}
	if c.Len() != 10 {
		t.Errorf("Len() = %d, want 10", c.Len())
	}
}

// TestCache_LRUEviction verifies strict LRU ordering: after inserting
// City1..City10, touching City1 via Get, then inserting City11, the
// least recently used key (City2) is evicted while City1 survives.
func TestCache_LRUEviction(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	for i := 1; i <= 10; i++ {
		mustPut(t, c, fmt.Sprintf("City%d", i), "clear", clock.Now())
	}
	if _, ok := c.Get("City1"); !ok {
		t.Fatal("Get(City1) ok = false, want true before eviction")
	}

	mustPut(t, c, "City11", "clear", clock.Now())

	if _, ok := c.Get("City1"); !ok {
		t.Error("City1 was evicted, want retained (recently touched)")
	}
	if _, ok := c.Get("City2"); ok {
		t.Error("City2 still present, want evicted (least recently used)")
	}
	for i := 3; i <= 11; i++ {
		key := fmt.Sprintf("City%d", i)
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s missing, want present", key)
		}
	}
}

// TestCache_RecencyUpdatedOnWrite verifies that replacing an existing key
// counts as a touch, protecting it from the next eviction.
func TestCache_RecencyUpdatedOnWrite(t *testing.T) {
	c, clock := newTestCache(t, 3, 10*time.Minute)

	mustPut(t, c, "a", "1", clock.Now())
	mustPut(t, c, "b", "2", clock.Now())
	mustPut(t, c, "c", "3", clock.Now())
	mustPut(t, c, "a", "1-replaced", clock.Now()) // touch via write
	mustPut(t, c, "d", "4", clock.Now())          // evicts b

	if _, ok := c.Get("b"); ok {
		t.Error("b still present, want evicted")
	}
	entry, ok := c.Get("a")
	if !ok {
		t.Fatal("a missing, want retained after write touch")
	}
	if entry.Value != "1-replaced" {
		t.Errorf("a value = %q, want %q", entry.Value, "1-replaced")
	}
}

// TestCache_TTLExpiry verifies that an entry is served strictly before
// fetchedAt+ttl and removed at or after that instant.
func TestCache_TTLExpiry(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, "paris", "sunny", clock.Now())

	clock.Advance(10*time.Minute - time.Second)
	if _, ok := c.Get("paris"); !ok {
		t.Fatal("Get() ok = false just before expiry, want true")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("paris"); ok {
		t.Fatal("Get() ok = true at expiry, want false")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", c.Len())
	}
}

// TestCache_Contains verifies that Contains is expiry-aware rather than a
// raw existence check.
func TestCache_Contains(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, "oslo", "snow", clock.Now())
	if !c.Contains("oslo") {
		t.Fatal("Contains() = false, want true for fresh entry")
	}
	if c.Contains("bergen") {
		t.Error("Contains() = true for absent key, want false")
	}

	clock.Advance(11 * time.Minute)
	if c.Contains("oslo") {
		t.Error("Contains() = true for expired entry, want false")
	}
}

// TestCache_RemoveAndClear verifies explicit removal and full clear.
func TestCache_RemoveAndClear(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, "rome", "clear", clock.Now())
	mustPut(t, c, "milan", "fog", clock.Now())

	c.Remove("ROME ") // normalized
	if _, ok := c.Get("rome"); ok {
		t.Error("rome still present after Remove")
	}
	c.Remove("rome") // removing an absent key is a no-op

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	mustPut(t, c, "rome", "clear", clock.Now())
	if c.Len() != 1 {
		t.Errorf("Len() = %d, cache unusable after Clear", c.Len())
	}
}

// TestCache_KeysSnapshot verifies that Keys returns normalized keys as a
// copy that does not observe later mutation.
func TestCache_KeysSnapshot(t *testing.T) {
	c, clock := newTestCache(t, 10, 10*time.Minute)

	mustPut(t, c, " London ", "rain", clock.Now())
	mustPut(t, c, "Paris", "sun", clock.Now())

	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys() len = %d, want 2", len(keys))
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["london"] || !seen["paris"] {
		t.Errorf("Keys() = %v, want normalized {london, paris}", keys)
	}

	c.Clear()
	if len(keys) != 2 {
		t.Error("Keys() snapshot mutated by Clear")
	}
}

// TestCache_ConcurrentAccess exercises mixed readers and writers to catch
// data races under the race detector.
func TestCache_ConcurrentAccess(t *testing.T) {
	c, err := New[string](10, 10*time.Minute)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("city%d", (g*7+i)%15)
				switch i % 4 {
				case 0:
					_ = c.Put(key, NewEntry("v", time.Now()))
				case 1:
					c.Get(key)
				case 2:
					c.Keys()
				case 3:
					c.Remove(key)
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("Len() = %d after concurrent load, exceeds capacity", c.Len())
	}
}
