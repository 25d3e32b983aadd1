package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// maxSuggestionDistance is the levenshtein cutoff for "did you mean".
const maxSuggestionDistance = 3

// Registry holds the signing providers available to a session.
// Registration happens once at application start; lookups are read-mostly.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]SigningProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]SigningProvider),
	}
}

// Register adds a provider. Registering the same name twice replaces the
// earlier provider.
func (r *Registry) Register(p SigningProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider with the given name.
// Unknown names fail with ErrUnknownProvider, carrying a "did you mean"
// suggestion when a registered name is close.
func (r *Registry) Get(name string) (SigningProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		err := glypherr.WithDetails(glypherr.ErrUnknownProvider, map[string]string{
			"provider": name,
		})
		if suggestion := r.closestLocked(name); suggestion != "" {
			err = glypherr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", suggestion))
		}
		return nil, err
	}
	return p, nil
}

// Has returns true if a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// List returns descriptors for all registered providers, sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.providers))
	for _, p := range r.providers {
		descriptors = append(descriptors, p.Describe())
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors
}

// closestLocked returns the registered name nearest to input, or "" when
// nothing is within the suggestion cutoff. Caller must hold the lock.
func (r *Registry) closestLocked(input string) string {
	input = strings.ToLower(input)

	best := ""
	bestDist := maxSuggestionDistance + 1
	for name := range r.providers {
		dist := levenshtein.ComputeDistance(input, strings.ToLower(name))
		if dist < bestDist {
			best = name
			bestDist = dist
		}
	}

	if bestDist > maxSuggestionDistance {
		return ""
	}
	return best
}
