package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// RunnerFunc is a registered handler with its input type erased to JSON.
type RunnerFunc func(wf *Workflow, input []byte) error

// versionedRunner holds a runner tagged with its version number.
type versionedRunner struct {
	version int
	runner  RunnerFunc
}

// Registry maps process keys to versioned handlers. New runs use the
// highest version; resumed runs keep the version they were stamped with.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	versions map[string][]versionedRunner
}

// NewRegistry creates an empty workflow registry.
func NewRegistry() *Registry {
	return &Registry{
		versions: make(map[string][]versionedRunner),
	}
}

// RegisterDefinition registers def under its name and version, replacing
// a previous registration of the same pair.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	version := def.Version
	if version <= 0 {
		version = 1
	}

	runner := func(wf *Workflow, input []byte) error {
		var t T
		if len(input) > 0 {
			if err := json.Unmarshal(input, &t); err != nil {
				return fmt.Errorf("decode variables for process %q: %w", def.Name, err)
			}
		}
		return def.Handler(wf, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	vr := versionedRunner{version: version, runner: runner}
	existing := r.versions[def.Name]

	replaced := false
	for i, v := range existing {
		if v.version == version {
			existing[i] = vr
			replaced = true
			break
		}
	}
	if !replaced {
		existing = append(existing, vr)
	}
	r.versions[def.Name] = existing
}

// Get returns the highest-version handler for name.
func (r *Registry) Get(name string) (RunnerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := r.versions[name]
	if len(versions) == 0 {
		return nil, false
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if v.version > best.version {
			best = v
		}
	}
	return best.runner, true
}

// GetVersion returns the handler for one version. A version <= 0 means
// the latest.
func (r *Registry) GetVersion(name string, version int) (RunnerFunc, bool) {
	if version <= 0 {
		return r.Get(name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions[name] {
		if v.version == version {
			return v.runner, true
		}
	}
	return nil, false
}

// LatestVersion returns the highest registered version, or 0.
func (r *Registry) LatestVersion(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	best := 0
	for _, v := range r.versions[name] {
		if v.version > best {
			best = v.version
		}
	}
	return best
}

// Has reports whether any version of name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.versions[name]) > 0
}

// Names returns the registered process keys in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.versions))
	for name := range r.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
