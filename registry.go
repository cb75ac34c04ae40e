package weathersdk

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry enforces one SDK instance per API key. Acquiring an existing key
// with the same mode returns the existing instance; acquiring it with a
// different mode is an error, never a silent override. Releasing a key
// closes its instance.
type Registry struct {
	logger *zap.Logger

	mu        sync.Mutex
	instances map[string]*SDK
}

// NewRegistry creates an empty registry. The logger may be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:    logger,
		instances: make(map[string]*SDK),
	}
}

// Acquire returns the SDK registered for apiKey, constructing one on first
// use. Options are applied only on construction; on subsequent calls the
// requested mode must match the registered instance's mode.
func (r *Registry) Acquire(apiKey string, mode Mode, opts ...Option) (*SDK, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.instances[key]; ok {
		if existing.Mode() != mode {
			return nil, fmt.Errorf("%w: registered %s, requested %s (release the key first)",
				ErrConflictingMode, existing.Mode(), mode)
		}
		r.logger.Debug("returning existing sdk instance", zap.String("api_key", maskAPIKey(key)))
		return existing, nil
	}

	sdk, err := New(key, append(opts, WithMode(mode))...)
	if err != nil {
		return nil, err
	}
	r.instances[key] = sdk

	r.logger.Info("registered sdk instance",
		zap.String("api_key", maskAPIKey(key)),
		zap.String("mode", mode.String()))
	return sdk, nil
}

// Release closes and removes the SDK registered for apiKey. Returns false
// when no instance was registered.
func (r *Registry) Release(apiKey string) bool {
	key := strings.TrimSpace(apiKey)

	r.mu.Lock()
	sdk, ok := r.instances[key]
	if ok {
		delete(r.instances, key)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	sdk.Close()
	r.logger.Info("released sdk instance", zap.String("api_key", maskAPIKey(key)))
	return true
}

// ReleaseAll closes and removes every registered instance.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	instances := r.instances
	r.instances = make(map[string]*SDK)
	r.mu.Unlock()

	for key, sdk := range instances {
		sdk.Close()
		r.logger.Info("released sdk instance", zap.String("api_key", maskAPIKey(key)))
	}
}

// Has reports whether an instance is registered for apiKey.
func (r *Registry) Has(apiKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.instances[strings.TrimSpace(apiKey)]
	return ok
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// defaultRegistry backs the package-level convenience functions. It is the
// only process-wide state in this package; tear it down with ReleaseAll.
var defaultRegistry = NewRegistry(nil)

// Acquire returns the SDK for apiKey from the process-wide registry.
func Acquire(apiKey string, mode Mode, opts ...Option) (*SDK, error) {
	return defaultRegistry.Acquire(apiKey, mode, opts...)
}

// Release closes and removes apiKey's SDK from the process-wide registry.
func Release(apiKey string) bool {
	return defaultRegistry.Release(apiKey)
}

// ReleaseAll closes and removes every SDK in the process-wide registry.
func ReleaseAll() {
	defaultRegistry.ReleaseAll()
}

// InstanceCount returns the number of SDKs in the process-wide registry.
func InstanceCount() int {
	return defaultRegistry.Count()
}

// maskAPIKey keeps only the first and last four characters for logging.
func maskAPIKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
