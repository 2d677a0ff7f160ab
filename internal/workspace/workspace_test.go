package workspace

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fpang/reel-studio/internal/selection"
)

// prefixMembers treats "<category>/..." refs as members of category.
type prefixMembers struct{}

func (prefixMembers) Contains(category, ref string) bool {
	return strings.HasPrefix(ref, category+"/")
}

func TestRegistryGetReturnsSameWorkspace(t *testing.T) {
	r := NewRegistry(prefixMembers{}, 3, time.Minute)
	a := r.Get("ctx-1")
	if r.Get("ctx-1") != a {
		t.Error("Get should return the same workspace for the same id")
	}
	if r.Get("ctx-2") == a {
		t.Error("different ids should get different workspaces")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	r.Drop("ctx-1")
	if r.Get("ctx-1") == a {
		t.Error("Drop should forget the workspace")
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(prefixMembers{}, 3, 20*time.Millisecond)
	ws := r.Get("ctx")
	ws.SetCategory("nature")
	if _, err := ws.Add("nature/a.jpg"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := r.Get("ctx").View().Count; got != 0 {
		t.Errorf("expired context kept %d items", got)
	}
}

func TestAddRequiresCategoryMembership(t *testing.T) {
	ws := NewRegistry(prefixMembers{}, 3, 0).Get("ctx")
	if _, err := ws.Add("nature/a.jpg"); !errors.Is(err, ErrNoCategory) {
		t.Errorf("Add without category error = %v, want ErrNoCategory", err)
	}
	ws.SetCategory("nature")
	if _, err := ws.Add("city/a.jpg"); !errors.Is(err, ErrNotInCategory) {
		t.Errorf("Add(other category) error = %v, want ErrNotInCategory", err)
	}
	if _, err := ws.Toggle("city/a.jpg"); !errors.Is(err, ErrNotInCategory) {
		t.Errorf("Toggle(other category) error = %v, want ErrNotInCategory", err)
	}
	rank, err := ws.Add("nature/a.jpg")
	if err != nil || rank != 1 {
		t.Errorf("Add = (%d, %v), want (1, nil)", rank, err)
	}
}

func TestSetCategoryClearsSelection(t *testing.T) {
	ws := NewRegistry(prefixMembers{}, 3, 0).Get("ctx")
	ws.SetCategory("nature")
	ws.Add("nature/a.jpg")
	ws.Add("nature/b.jpg")

	if n := ws.SetCategory("nature"); n != 0 {
		t.Errorf("same category cleared %d items", n)
	}
	if n := ws.SetCategory("city"); n != 2 {
		t.Errorf("SetCategory(city) cleared %d, want 2", n)
	}
	v := ws.View()
	if v.Category != "city" || v.Count != 0 {
		t.Errorf("View() = %+v, want empty city selection", v)
	}
	if v.Summary != "Select images (up to 3)" {
		t.Errorf("Summary = %q", v.Summary)
	}
}

func TestSelectionOpsDelegate(t *testing.T) {
	ws := NewRegistry(prefixMembers{}, 2, 0).Get("ctx")
	ws.SetCategory("nature")
	ws.Add("nature/a.jpg")
	ws.Add("nature/b.jpg")

	if _, err := ws.Add("nature/c.jpg"); !errors.Is(err, selection.ErrCapacityExceeded) {
		t.Errorf("Add over capacity error = %v", err)
	}
	selected, err := ws.Toggle("nature/a.jpg")
	if err != nil || selected {
		t.Errorf("Toggle(selected) = (%v, %v), want (false, nil)", selected, err)
	}
	if rank := ws.View().Ranks["nature/b.jpg"]; rank != 1 {
		t.Errorf("rank of b after removing a = %d, want 1", rank)
	}
	if _, err := ws.Remove("nature/zzz.jpg"); !errors.Is(err, selection.ErrNotSelected) {
		t.Errorf("Remove(unselected) error = %v", err)
	}
	if n := ws.Clear(); n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
}

// flipMembers lets a test change membership after items were selected.
type flipMembers struct {
	mu      sync.Mutex
	removed map[string]bool
}

func (f *flipMembers) Contains(category, ref string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.HasPrefix(ref, category+"/") && !f.removed[ref]
}

func TestReady(t *testing.T) {
	members := &flipMembers{removed: map[string]bool{}}
	ws := NewRegistry(members, 4, 0).Get("ctx")
	ws.SetCategory("nature")
	ws.Add("nature/b.jpg")
	ws.Add("nature/a.jpg")

	category, items, err := ws.Ready()
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if category != "nature" || len(items) != 2 || items[0] != "nature/b.jpg" || items[1] != "nature/a.jpg" {
		t.Errorf("Ready() = (%q, %v)", category, items)
	}

	members.mu.Lock()
	members.removed["nature/a.jpg"] = true
	members.mu.Unlock()
	if _, _, err := ws.Ready(); !errors.Is(err, ErrNotInCategory) {
		t.Errorf("Ready after image vanished error = %v, want ErrNotInCategory", err)
	}
}
