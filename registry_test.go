package weathersdk

import (
	"errors"
	"testing"
)

const registryTestKey = "registry-test-key-0123456789"

// TestRegistry_AcquireIdempotent verifies that acquiring the same key with
// the same mode returns the same instance without constructing a second one.
func TestRegistry_AcquireIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	defer r.ReleaseAll()

	first, err := r.Acquire(registryTestKey, OnDemand, WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, err := r.Acquire(registryTestKey, OnDemand)
	if err != nil {
		t.Fatalf("Acquire() second error = %v", err)
	}
	if first != second {
		t.Error("Acquire() returned a different instance for the same key")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

// TestRegistry_KeyTrimmed verifies that surrounding whitespace does not
// create a second instance for the same credential.
func TestRegistry_KeyTrimmed(t *testing.T) {
	r := NewRegistry(nil)
	defer r.ReleaseAll()

	first, err := r.Acquire(registryTestKey, OnDemand, WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, err := r.Acquire("  "+registryTestKey+"  ", OnDemand)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if first != second {
		t.Error("whitespace variant produced a different instance")
	}
}

// TestRegistry_ModeConflict verifies that re-acquiring a key with a
// different mode is an error, not a silent override.
func TestRegistry_ModeConflict(t *testing.T) {
	r := NewRegistry(nil)
	defer r.ReleaseAll()

	if _, err := r.Acquire(registryTestKey, OnDemand, WithFetcher(newMockFetcher())); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	_, err := r.Acquire(registryTestKey, Polling)
	if !errors.Is(err, ErrConflictingMode) {
		t.Fatalf("Acquire() error = %v, want ErrConflictingMode", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d after conflict, want 1", r.Count())
	}
}

// TestRegistry_BlankKey verifies that blank credentials are rejected.
func TestRegistry_BlankKey(t *testing.T) {
	r := NewRegistry(nil)

	if _, err := r.Acquire("   ", OnDemand); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("Acquire() error = %v, want ErrInvalidAPIKey", err)
	}
}

// TestRegistry_Release verifies that Release closes the instance, removes
// it, and reports whether anything was registered.
func TestRegistry_Release(t *testing.T) {
	r := NewRegistry(nil)

	sdk, err := r.Acquire(registryTestKey, OnDemand, WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if !r.Release(registryTestKey) {
		t.Error("Release() = false, want true for registered key")
	}
	if !sdk.IsClosed() {
		t.Error("released instance not closed")
	}
	if r.Has(registryTestKey) {
		t.Error("Has() = true after Release, want false")
	}
	if r.Release(registryTestKey) {
		t.Error("Release() = true for already-released key, want false")
	}
	if r.Release("never-registered") {
		t.Error("Release() = true for unknown key, want false")
	}
}

// TestRegistry_ReleaseAll verifies that ReleaseAll closes every instance and
// empties the registry.
func TestRegistry_ReleaseAll(t *testing.T) {
	r := NewRegistry(nil)

	a, err := r.Acquire("first-test-key-0123456789", OnDemand, WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := r.Acquire("second-test-key-0123456789", Polling,
		WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	r.ReleaseAll()

	if r.Count() != 0 {
		t.Errorf("Count() = %d after ReleaseAll, want 0", r.Count())
	}
	if !a.IsClosed() || !b.IsClosed() {
		t.Error("ReleaseAll left instances open")
	}
}

// TestDefaultRegistry verifies the package-level convenience functions
// against the process-wide registry.
func TestDefaultRegistry(t *testing.T) {
	defer ReleaseAll()

	sdk, err := Acquire(registryTestKey, OnDemand, WithFetcher(newMockFetcher()))
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if InstanceCount() != 1 {
		t.Errorf("InstanceCount() = %d, want 1", InstanceCount())
	}
	if !Release(registryTestKey) {
		t.Error("Release() = false, want true")
	}
	if !sdk.IsClosed() {
		t.Error("released instance not closed")
	}
	if InstanceCount() != 0 {
		t.Errorf("InstanceCount() = %d, want 0", InstanceCount())
	}
}

// TestMaskAPIKey verifies that logged keys keep only the first and last
// four characters.
func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcd1234efgh", "abcd****efgh"},
		{"short", "***"},
		{"", "***"},
		{"exactly8", "exac****tly8"},
	}
	for _, tc := range tests {
		if got := maskAPIKey(tc.in); got != tc.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
