package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrEmptyName is returned when registering a comparator without a name.
	ErrEmptyName = errors.New("comparator name cannot be empty")

	// ErrNilComparator is returned when registering a nil function.
	ErrNilComparator = errors.New("comparator function cannot be nil")
)

// DuplicateError is returned when a comparator name is registered twice.
type DuplicateError struct {
	Name string
}

// Error returns the error message.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("comparator %q is already registered", e.Name)
}

// Dictionary is an immutable set of named comparators. It is safe for
// concurrent use; extending it goes through a Builder and yields a new
// Dictionary.
type Dictionary struct {
	entries map[string]Comparator
	names   []string
}

// Lookup returns the comparator registered under name.
func (d *Dictionary) Lookup(name string) (Comparator, bool) {
	c, ok := d.entries[name]
	return c, ok
}

// Has reports whether name is a registered comparator.
func (d *Dictionary) Has(name string) bool {
	_, ok := d.entries[name]
	return ok
}

// Names returns the registered names in sorted order.
func (d *Dictionary) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of registered comparators.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Extend returns a Builder seeded with this dictionary's comparators.
func (d *Dictionary) Extend() *Builder {
	b := NewBuilder()
	for _, name := range d.names {
		b.entries[name] = d.entries[name]
	}
	return b
}

// Builder collects comparators before a Dictionary is built. A Builder is not
// safe for concurrent use.
type Builder struct {
	entries map[string]Comparator
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]Comparator)}
}

// Register adds a caller-supplied comparator function under name.
func (b *Builder) Register(name string, fn Func) error {
	if fn == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilComparator)
	}
	return b.RegisterComparator(Custom(name, fn))
}

// RegisterComparator adds a fully specified comparator.
func (b *Builder) RegisterComparator(c Comparator) error {
	if c.name == "" {
		return ErrEmptyName
	}
	if c.bind == nil {
		return fmt.Errorf("register %q: %w", c.name, ErrNilComparator)
	}
	if _, exists := b.entries[c.name]; exists {
		return &DuplicateError{Name: c.name}
	}
	b.entries[c.name] = c
	return nil
}

// MustRegister is like Register but panics on error. It is intended for
// package-level dictionary construction.
func (b *Builder) MustRegister(name string, fn Func) *Builder {
	if err := b.Register(name, fn); err != nil {
		panic(err)
	}
	return b
}

// Build returns an immutable dictionary holding a copy of the registered
// comparators. The builder may keep being used afterwards without affecting
// the returned dictionary.
func (b *Builder) Build() *Dictionary {
	d := &Dictionary{
		entries: make(map[string]Comparator, len(b.entries)),
		names:   make([]string, 0, len(b.entries)),
	}
	for name, c := range b.entries {
		d.entries[name] = c
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)
	return d
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// Default returns the dictionary of built-in comparators: equals,
// greaterThan, greaterThanOrEqualTo, lessThan, lessThanOrEqualTo, contains,
// beginsWith, endsWith, typeOf, isSet and hasBeenTouched.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		b := NewBuilder()
		for _, c := range builtins() {
			if err := b.RegisterComparator(c); err != nil {
				panic(err)
			}
		}
		defaultDict = b.Build()
	})
	return defaultDict
}
