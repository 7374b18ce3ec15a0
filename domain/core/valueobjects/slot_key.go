package valueobjects

import (
	"fmt"
	"strings"
)

// SlotKey addresses a structural position inside a composite parent:
// the section (or other structural container) plus the order within it.
// At most one entity version may be active per slot at any time.
type SlotKey struct {
	ParentID string `json:"parent_id"`
	Order    int    `json:"order"`
}

// NewSlotKey builds a validated slot key
func NewSlotKey(parentID string, order int) (SlotKey, error) {
	if strings.TrimSpace(parentID) == "" {
		return SlotKey{}, fmt.Errorf("slot parent id cannot be empty")
	}
	if order < 0 {
		return SlotKey{}, fmt.Errorf("slot order must be >= 0, got %d", order)
	}
	return SlotKey{ParentID: parentID, Order: order}, nil
}

// String renders the slot key as "parent#order"
func (s SlotKey) String() string {
	return fmt.Sprintf("%s#%d", s.ParentID, s.Order)
}
