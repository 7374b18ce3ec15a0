package valueobjects

import (
	"fmt"
	"strconv"
	"strings"
)

// EntityKey is the identity of a single entity version: (Kind, Name, Version).
// There is no surrogate identifier; the triple is the primary key everywhere.
type EntityKey struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// NewEntityKey builds a validated entity key
func NewEntityKey(kind Kind, name string, version int) (EntityKey, error) {
	if !kind.IsValid() {
		return EntityKey{}, fmt.Errorf("unknown entity kind: %q", kind)
	}
	if strings.TrimSpace(name) == "" {
		return EntityKey{}, fmt.Errorf("entity name cannot be empty")
	}
	if version < 1 {
		return EntityKey{}, fmt.Errorf("entity version must be >= 1, got %d", version)
	}
	return EntityKey{Kind: kind, Name: name, Version: version}, nil
}

// String renders the key as "kind/name@v3"
func (k EntityKey) String() string {
	return fmt.Sprintf("%s/%s@v%d", k.Kind, k.Name, k.Version)
}

// Equals compares two keys field by field
func (k EntityKey) Equals(other EntityKey) bool {
	return k.Kind == other.Kind && k.Name == other.Name && k.Version == other.Version
}

// WithVersion returns a copy of the key pointing at a different version
func (k EntityKey) WithVersion(version int) EntityKey {
	k.Version = version
	return k
}

// ParseEntityKey parses the "kind/name@v3" form produced by String
func ParseEntityKey(raw string) (EntityKey, error) {
	slash := strings.Index(raw, "/")
	at := strings.LastIndex(raw, "@v")
	if slash < 0 || at < 0 || at < slash {
		return EntityKey{}, fmt.Errorf("malformed entity key: %q", raw)
	}

	kind, err := ParseKind(raw[:slash])
	if err != nil {
		return EntityKey{}, err
	}

	version, err := strconv.Atoi(raw[at+2:])
	if err != nil {
		return EntityKey{}, fmt.Errorf("malformed version in entity key %q: %w", raw, err)
	}

	return NewEntityKey(kind, raw[slash+1:at], version)
}
