// Package selection tracks which images a user has picked for a multi-shot
// video and in what order. Shot order in the generated video follows the
// selection order, so ranks stay dense (1..N) across removals.
//
// A Set is not safe for concurrent use; callers that share one across
// goroutines (see internal/workspace) must guard it.
package selection

import "fmt"

// DefaultCapacity is the maximum number of images a selection holds.
// Matches the provider's multi-shot ceiling.
const DefaultCapacity = 8

// Set is a bounded, order-preserving set of item references.
type Set struct {
	capacity int
	items    []string       // selection order
	ranks    map[string]int // item -> 1-based rank
}

// New creates an empty Set. A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		capacity: capacity,
		ranks:    make(map[string]int),
	}
}

// Add appends item and returns its rank.
func (s *Set) Add(item string) (int, error) {
	if len(s.items) >= s.capacity {
		return 0, &Error{Kind: CapacityExceeded, Item: item, Capacity: s.capacity}
	}
	if _, ok := s.ranks[item]; ok {
		return 0, &Error{Kind: AlreadySelected, Item: item, Capacity: s.capacity}
	}

	s.items = append(s.items, item)
	rank := len(s.items)
	s.ranks[item] = rank
	return rank, nil
}

// Remove drops item and renumbers every later item down by one.
// Returns the number of items still selected.
func (s *Set) Remove(item string) (int, error) {
	removed, ok := s.ranks[item]
	if !ok {
		return len(s.items), &Error{Kind: NotSelected, Item: item, Capacity: s.capacity}
	}

	// items[removed-1] is the item itself; ranks above it shift down.
	s.items = append(s.items[:removed-1], s.items[removed:]...)
	delete(s.ranks, item)
	for i := removed - 1; i < len(s.items); i++ {
		s.ranks[s.items[i]] = i + 1
	}
	return len(s.items), nil
}

// Toggle adds item if absent and removes it otherwise. It reports whether the
// item is selected afterwards.
func (s *Set) Toggle(item string) (bool, error) {
	if s.IsSelected(item) {
		_, err := s.Remove(item)
		return false, err
	}
	_, err := s.Add(item)
	return err == nil, err
}

// Clear empties the set and returns how many items were removed.
func (s *Set) Clear() int {
	n := len(s.items)
	s.items = nil
	s.ranks = make(map[string]int)
	return n
}

// OrderedItems returns a copy of the items in rank order.
func (s *Set) OrderedItems() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// IsSelected reports whether item is in the set.
func (s *Set) IsSelected(item string) bool {
	_, ok := s.ranks[item]
	return ok
}

// RankOf returns the rank of item, or false if it is not selected.
func (s *Set) RankOf(item string) (int, bool) {
	r, ok := s.ranks[item]
	return r, ok
}

// IsFull reports whether the set is at capacity.
func (s *Set) IsFull() bool { return len(s.items) >= s.capacity }

// Count returns the number of selected items.
func (s *Set) Count() int { return len(s.items) }

// Capacity returns the maximum number of items.
func (s *Set) Capacity() int { return s.capacity }

// Status is a point-in-time view of a selection for display.
type Status struct {
	Count     int            `json:"count"`
	Capacity  int            `json:"capacity"`
	Remaining int            `json:"remaining"`
	IsFull    bool           `json:"isFull"`
	Items     []string       `json:"items"`
	Ranks     map[string]int `json:"ranks"`
	Summary   string         `json:"summary"`
}

// Status returns a snapshot of the selection.
func (s *Set) Status() Status {
	ranks := make(map[string]int, len(s.ranks))
	for k, v := range s.ranks {
		ranks[k] = v
	}
	return Status{
		Count:     len(s.items),
		Capacity:  s.capacity,
		Remaining: s.capacity - len(s.items),
		IsFull:    s.IsFull(),
		Items:     s.OrderedItems(),
		Ranks:     ranks,
		Summary:   s.Summary(),
	}
}

// Summary returns a one-line description such as "Selected 3/8 images".
func (s *Set) Summary() string {
	n := len(s.items)
	switch {
	case n == 0:
		return fmt.Sprintf("Select images (up to %d)", s.capacity)
	case n < s.capacity:
		return fmt.Sprintf("Selected %d/%d images", n, s.capacity)
	default:
		return fmt.Sprintf("Selected %d/%d images (limit reached)", n, s.capacity)
	}
}

func (s *Set) String() string {
	return fmt.Sprintf("selection(%d/%d)", len(s.items), s.capacity)
}
