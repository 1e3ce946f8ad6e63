package codegen

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/okra-platform/rlgen/internal/hostlang"
)

// ErrNoGenerator is returned when no generator is registered for a pair
var ErrNoGenerator = errors.New("no generator registered")

// Key identifies one cell of the (host language, style) grid
type Key struct {
	Lang  hostlang.Lang
	Style Style
}

// Factory builds a generator bound to out
type Factory func(out io.Writer, opts Options) Generator

// Registry manages available code generators
type Registry struct {
	generators map[Key]Factory
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	r := &Registry{
		generators: make(map[Key]Factory),
	}
	return r
}

// Register adds a new generator factory to the registry
func (r *Registry) Register(lang hostlang.Lang, style Style, factory Factory) {
	r.generators[Key{Lang: lang, Style: style}] = factory
}

// Create returns a generator for the pair with its metadata already set
func (r *Registry) Create(lang hostlang.Lang, style Style, out io.Writer, opts Options, meta Metadata) (Generator, error) {
	factory, exists := r.generators[Key{Lang: lang, Style: style}]
	if !exists {
		return nil, fmt.Errorf("%w: host language %s, style %s", ErrNoGenerator, lang, style)
	}

	gen := factory(out, opts)
	if gen == nil {
		return nil, fmt.Errorf("%w: factory for %s/%s returned nil", ErrNoGenerator, lang, style)
	}
	gen.SetMetadata(meta)

	return gen, nil
}

// Supports reports whether any style is registered for the language
func (r *Registry) Supports(lang hostlang.Lang) bool {
	for key := range r.generators {
		if key.Lang == lang {
			return true
		}
	}
	return false
}

// Languages returns the supported languages in a stable order
func (r *Registry) Languages() []hostlang.Lang {
	seen := make(map[hostlang.Lang]bool)
	languages := make([]hostlang.Lang, 0, 2)
	for key := range r.generators {
		if !seen[key.Lang] {
			seen[key.Lang] = true
			languages = append(languages, key.Lang)
		}
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i] < languages[j] })
	return languages
}

// Styles returns the styles registered for a language in flag order
func (r *Registry) Styles(lang hostlang.Lang) []Style {
	var out []Style
	for _, s := range AllStyles() {
		if _, ok := r.generators[Key{Lang: lang, Style: s}]; ok {
			out = append(out, s)
		}
	}
	return out
}
