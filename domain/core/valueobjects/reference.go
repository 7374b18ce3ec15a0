package valueobjects

import (
	"fmt"
	"strings"
)

// Reference points from one entity's content at another named entity.
//
// A pinned reference carries a concrete version and is an immutable binding to
// exactly that content forever. A dynamic reference leaves Version nil and
// resolves to the newest non-deleted version of the target at read time.
type Reference struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Version *int   `json:"version,omitempty"`
}

// PinnedReference builds a reference bound to an exact version
func PinnedReference(kind Kind, name string, version int) Reference {
	return Reference{Kind: kind, Name: name, Version: &version}
}

// DynamicReference builds a reference that resolves to the latest version
func DynamicReference(kind Kind, name string) Reference {
	return Reference{Kind: kind, Name: name}
}

// IsPinned reports whether the reference is bound to a concrete version
func (r Reference) IsPinned() bool {
	return r.Version != nil
}

// PinnedKey returns the entity key a pinned reference denotes.
// The second return is false for dynamic references.
func (r Reference) PinnedKey() (EntityKey, bool) {
	if r.Version == nil {
		return EntityKey{}, false
	}
	return EntityKey{Kind: r.Kind, Name: r.Name, Version: *r.Version}, true
}

// PinsExactly reports whether the reference pins the given key
func (r Reference) PinsExactly(key EntityKey) bool {
	return r.Version != nil && r.Kind == key.Kind && r.Name == key.Name && *r.Version == key.Version
}

// Repin returns a copy of the reference pinned to a new version.
// Calling Repin on a dynamic reference is a programming error.
func (r Reference) Repin(version int) Reference {
	return Reference{Kind: r.Kind, Name: r.Name, Version: &version}
}

// Validate checks the reference shape
func (r Reference) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("reference has unknown kind: %q", r.Kind)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("reference name cannot be empty")
	}
	if r.Version != nil && *r.Version < 1 {
		return fmt.Errorf("reference version must be >= 1, got %d", *r.Version)
	}
	return nil
}

// String renders "kind/name@v3" for pinned and "kind/name@latest" for dynamic
func (r Reference) String() string {
	if r.Version == nil {
		return fmt.Sprintf("%s/%s@latest", r.Kind, r.Name)
	}
	return fmt.Sprintf("%s/%s@v%d", r.Kind, r.Name, *r.Version)
}
