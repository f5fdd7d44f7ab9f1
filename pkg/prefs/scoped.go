package prefs

import (
	"context"

	"github.com/sgaunet/s2console/pkg/listing"
)

// Scoped namespaces a store by owner, so that every console user resumes
// with their own page sizes and filters.
type Scoped struct {
	store listing.PreferenceStore
	owner string
}

// NewScoped wraps store for owner.
func NewScoped(store listing.PreferenceStore, owner string) *Scoped {
	return &Scoped{store: store, owner: owner}
}

// Get returns the preferences stored for resource under the owner.
func (s *Scoped) Get(ctx context.Context, resource string) (listing.Preferences, bool, error) {
	return s.store.Get(ctx, s.key(resource))
}

// Set stores the preferences for resource under the owner.
func (s *Scoped) Set(ctx context.Context, resource string, p listing.Preferences) error {
	return s.store.Set(ctx, s.key(resource), p)
}

func (s *Scoped) key(resource string) string {
	if s.owner == "" {
		return resource
	}
	return s.owner + "/" + resource
}
