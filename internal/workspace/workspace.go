// Package workspace keeps one image selection per browsing context. A
// context browses one category at a time; switching category clears its
// selection. Contexts idle for longer than the TTL are dropped.
package workspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/selection"
)

// DefaultTTL is how long an untouched context is kept.
const DefaultTTL = 30 * time.Minute

var (
	// ErrNoCategory means an image was picked before choosing a category.
	ErrNoCategory = errors.New("no category selected")
	// ErrNotInCategory means an image does not belong to the current category.
	ErrNotInCategory = errors.New("image is not in the current category")
)

// Membership answers whether an image ref belongs to a category.
type Membership interface {
	Contains(category, ref string) bool
}

// Registry maps context IDs to workspaces.
type Registry struct {
	cache    *cache.Cache
	members  Membership
	capacity int

	// mu makes get-or-create atomic.
	mu sync.Mutex
}

// NewRegistry returns a registry whose selections hold up to capacity items.
// A ttl <= 0 uses DefaultTTL.
func NewRegistry(members Membership, capacity int, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, _ any) {
		log.Debug().Str("contextId", id).Msg("Selection context expired")
	})
	return &Registry{cache: c, members: members, capacity: capacity}
}

// Get returns the workspace for id, creating it on first use. Every call
// restarts the idle timer.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ws *Workspace
	if x, found := r.cache.Get(id); found {
		ws = x.(*Workspace)
	} else {
		ws = &Workspace{id: id, members: r.members, set: selection.New(r.capacity)}
		log.Debug().Str("contextId", id).Msg("Selection context created")
	}
	r.cache.SetDefault(id, ws)
	return ws
}

// Drop forgets a context.
func (r *Registry) Drop(id string) { r.cache.Delete(id) }

// Len returns the number of live contexts.
func (r *Registry) Len() int { return r.cache.ItemCount() }

// Workspace is one context's category and selection. Safe for concurrent use.
type Workspace struct {
	id      string
	members Membership

	mu       sync.Mutex
	category string
	set      *selection.Set
}

// View is a snapshot of a workspace.
type View struct {
	ContextID string `json:"contextId"`
	Category  string `json:"category"`
	selection.Status
}

// ID returns the context ID.
func (w *Workspace) ID() string { return w.id }

// SetCategory switches the browsed category. A change clears the selection;
// the number of items dropped is returned.
func (w *Workspace) SetCategory(category string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if category == w.category {
		return 0
	}
	w.category = category
	n := w.set.Clear()
	if n > 0 {
		log.Debug().Str("contextId", w.id).Str("category", category).Int("cleared", n).Msg("Category changed, selection cleared")
	}
	return n
}

// Add selects ref, which must belong to the current category.
func (w *Workspace) Add(ref string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkMember(ref); err != nil {
		return 0, err
	}
	return w.set.Add(ref)
}

// Remove deselects ref and returns the remaining count.
func (w *Workspace) Remove(ref string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.set.Remove(ref)
}

// Toggle flips ref and reports whether it is selected afterwards.
func (w *Workspace) Toggle(ref string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.set.IsSelected(ref) {
		if err := w.checkMember(ref); err != nil {
			return false, err
		}
	}
	return w.set.Toggle(ref)
}

// Clear empties the selection.
func (w *Workspace) Clear() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.set.Clear()
}

// View returns a snapshot.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{ContextID: w.id, Category: w.category, Status: w.set.Status()}
}

// Ready returns the category and ordered selection for submission after
// checking that every selected image still belongs to the category.
func (w *Workspace) Ready() (string, []string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	items := w.set.OrderedItems()
	for _, ref := range items {
		if err := w.checkMember(ref); err != nil {
			return "", nil, err
		}
	}
	return w.category, items, nil
}

func (w *Workspace) checkMember(ref string) error {
	if w.category == "" {
		return ErrNoCategory
	}
	if w.members != nil && !w.members.Contains(w.category, ref) {
		return fmt.Errorf("%w: %s", ErrNotInCategory, ref)
	}
	return nil
}
