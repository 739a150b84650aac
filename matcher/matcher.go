// Package matcher decides which methods of a type start a process.
//
// Eligibility is computed once per reflect.Type from three sources, in
// precedence order: explicit registrations, the type's own
// marker.Declarer, and the Declarers of its embedded fields (one level).
// Only methods that are actually in the type's method set are kept.
package matcher

import (
	"reflect"
	"sort"
	"sync"

	"github.com/xraph/startflow/marker"
)

var declarerType = reflect.TypeOf((*marker.Declarer)(nil)).Elem()

// Trigger is the resolved trigger descriptor of one eligible method.
type Trigger struct {
	// DeclaringType is the type whose declaration marked the method. For
	// methods promoted from an embedded field it is the field's type.
	DeclaringType reflect.Type
	Method        string
	Start         marker.StartProcess
	Params        []marker.Param
}

// ProcessKey returns the explicit process key, or "<Type>.<Method>" when
// none was declared.
func (t *Trigger) ProcessKey() string {
	if t.Start.ProcessKey != "" {
		return t.Start.ProcessKey
	}
	return TypeName(t.DeclaringType) + "." + t.Method
}

// Set is the eligible-method set of one type. It is immutable once built.
type Set struct {
	triggers map[string]*Trigger
}

// Len returns the number of eligible methods.
func (s *Set) Len() int { return len(s.triggers) }

// Get returns the trigger for method.
func (s *Set) Get(method string) (*Trigger, bool) {
	t, ok := s.triggers[method]
	return t, ok
}

// Methods returns the eligible method names, sorted.
func (s *Set) Methods() []string {
	names := make([]string, 0, len(s.triggers))
	for name := range s.triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matcher computes and memoises eligible-method sets. It is safe for
// concurrent use.
type Matcher struct {
	mu       sync.RWMutex
	explicit map[reflect.Type][]marker.Method
	cache    map[reflect.Type]*Set
	// gen counts registrations; a set computed under an older gen is
	// never cached.
	gen uint64
}

// New creates an empty Matcher.
func New() *Matcher {
	return &Matcher{
		explicit: make(map[reflect.Type][]marker.Method),
		cache:    make(map[reflect.Type]*Set),
	}
}

// Register declares marked methods for t without t implementing
// marker.Declarer. Pointer and value types share registrations.
func (m *Matcher) Register(t reflect.Type, methods ...marker.Method) {
	base := deref(t)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.explicit[base] = append(m.explicit[base], methods...)
	m.gen++
	delete(m.cache, base)
	delete(m.cache, reflect.PointerTo(base))
}

// Eligible returns the eligible-method set of t. The result is cached;
// concurrent first calls may compute it redundantly but all return the
// cached set. A computation that overlaps a Register is redone.
func (m *Matcher) Eligible(t reflect.Type) *Set {
	if t == nil {
		return &Set{}
	}
	base := deref(t)

	m.mu.RLock()
	s, ok := m.cache[t]
	gen, explicit := m.gen, m.explicit[base]
	m.mu.RUnlock()
	if ok {
		return s
	}

	for {
		s = compute(t, base, explicit)

		m.mu.Lock()
		if m.gen == gen {
			if cached, ok := m.cache[t]; ok {
				s = cached
			} else {
				m.cache[t] = s
			}
			m.mu.Unlock()
			return s
		}
		gen, explicit = m.gen, m.explicit[base]
		m.mu.Unlock()
	}
}

// CanApply reports whether t has at least one eligible method.
func (m *Matcher) CanApply(t reflect.Type) bool {
	return m.Eligible(t).Len() > 0
}

// Match returns the trigger for a single method of t.
func (m *Matcher) Match(t reflect.Type, method string) (*Trigger, bool) {
	return m.Eligible(t).Get(method)
}

func compute(t, base reflect.Type, explicit []marker.Method) *Set {
	s := &Set{triggers: make(map[string]*Trigger)}
	s.add(t, base, explicit)
	s.add(t, base, declared(t))

	if base.Kind() == reflect.Struct {
		for i := 0; i < base.NumField(); i++ {
			f := base.Field(i)
			if !f.Anonymous {
				continue
			}
			s.add(t, deref(f.Type), declared(f.Type))
		}
	}
	return s
}

// add records triggers for methods not already present. Methods missing
// from t's method set are ignored.
func (s *Set) add(t, declaring reflect.Type, methods []marker.Method) {
	for _, md := range methods {
		if _, exists := s.triggers[md.Name]; exists {
			continue
		}
		if _, ok := t.MethodByName(md.Name); !ok {
			continue
		}
		sp, ok := marker.TriggerOf(md.Markers)
		if !ok {
			continue
		}
		s.triggers[md.Name] = &Trigger{
			DeclaringType: declaring,
			Method:        md.Name,
			Start:         sp,
			Params:        md.Params,
		}
	}
}

// declared calls ProcessMethods on the zero value of t or *t.
func declared(t reflect.Type) []marker.Method {
	switch {
	case t.Kind() == reflect.Interface:
		return nil
	case t.Kind() == reflect.Pointer && t.Implements(declarerType):
		return reflect.New(t.Elem()).Interface().(marker.Declarer).ProcessMethods()
	case t.Implements(declarerType):
		return reflect.Zero(t).Interface().(marker.Declarer).ProcessMethods()
	case reflect.PointerTo(t).Implements(declarerType):
		return reflect.New(t).Interface().(marker.Declarer).ProcessMethods()
	}
	return nil
}

// TypeName returns the bare name of t, dereferencing pointers.
func TypeName(t reflect.Type) string {
	base := deref(t)
	if name := base.Name(); name != "" {
		return name
	}
	return base.String()
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
