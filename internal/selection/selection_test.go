package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func TestAddRemoveCompactsRanks(t *testing.T) {
	s := New(DefaultCapacity)
	for i, item := range []string{"A", "B", "C"} {
		rank, err := s.Add(item)
		if err != nil {
			t.Fatalf("Add(%s) error: %v", item, err)
		}
		if rank != i+1 {
			t.Errorf("Add(%s) rank = %d, want %d", item, rank, i+1)
		}
	}

	remaining, err := s.Remove("B")
	if err != nil {
		t.Fatalf("Remove(B) error: %v", err)
	}
	if remaining != 2 {
		t.Errorf("Remove(B) remaining = %d, want 2", remaining)
	}

	if got := s.OrderedItems(); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Errorf("OrderedItems() = %v, want [A C]", got)
	}
	if r, _ := s.RankOf("A"); r != 1 {
		t.Errorf("RankOf(A) = %d, want 1", r)
	}
	if r, _ := s.RankOf("C"); r != 2 {
		t.Errorf("RankOf(C) = %d, want 2", r)
	}
	if _, ok := s.RankOf("B"); ok {
		t.Error("RankOf(B) reported selected after removal")
	}
}

func TestRemoveSecondOfFive(t *testing.T) {
	s := New(DefaultCapacity)
	for _, item := range []string{"1", "2", "3", "4", "5"} {
		s.Add(item)
	}
	s.Remove("2")

	want := map[string]int{"1": 1, "3": 2, "4": 3, "5": 4}
	for item, rank := range want {
		if got, _ := s.RankOf(item); got != rank {
			t.Errorf("RankOf(%s) = %d, want %d", item, got, rank)
		}
	}

	// Next add continues from the compacted tail.
	rank, err := s.Add("6")
	if err != nil || rank != 5 {
		t.Errorf("Add(6) = (%d, %v), want (5, nil)", rank, err)
	}
}

func TestAddCapacityExceeded(t *testing.T) {
	s := New(3)
	for _, item := range []string{"a", "b", "c"} {
		if _, err := s.Add(item); err != nil {
			t.Fatalf("Add(%s) error: %v", item, err)
		}
	}
	if !s.IsFull() {
		t.Fatal("IsFull() = false at capacity")
	}

	_, err := s.Add("d")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Add beyond capacity error = %v, want CapacityExceeded", err)
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d after rejected add, want 3", s.Count())
	}
	if s.IsSelected("d") {
		t.Error("rejected item reported as selected")
	}
}

func TestAddDuplicate(t *testing.T) {
	s := New(DefaultCapacity)
	if _, err := s.Add("x"); err != nil {
		t.Fatalf("first Add error: %v", err)
	}
	_, err := s.Add("x")
	if !errors.Is(err, ErrAlreadySelected) {
		t.Fatalf("duplicate Add error = %v, want AlreadySelected", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestRemoveNotSelected(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add("x")
	_, err := s.Remove("y")
	if !errors.Is(err, ErrNotSelected) {
		t.Fatalf("Remove(y) error = %v, want NotSelected", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestClearResetsRanks(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add("a")
	s.Add("b")

	if n := s.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if s.Count() != 0 || len(s.OrderedItems()) != 0 {
		t.Errorf("set not empty after Clear: %v", s.OrderedItems())
	}
	if rank, _ := s.Add("c"); rank != 1 {
		t.Errorf("first rank after Clear = %d, want 1", rank)
	}
}

func TestToggle(t *testing.T) {
	s := New(2)
	if on, err := s.Toggle("a"); !on || err != nil {
		t.Fatalf("Toggle(a) = (%v, %v), want (true, nil)", on, err)
	}
	if on, err := s.Toggle("a"); on || err != nil {
		t.Fatalf("second Toggle(a) = (%v, %v), want (false, nil)", on, err)
	}
	s.Toggle("b")
	s.Toggle("c")
	if on, err := s.Toggle("d"); on || !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Toggle on full set = (%v, %v), want CapacityExceeded", on, err)
	}
}

func TestOrderedItemsIsCopy(t *testing.T) {
	s := New(DefaultCapacity)
	s.Add("a")
	s.Add("b")
	items := s.OrderedItems()
	items[0] = "mutated"
	if got := s.OrderedItems(); got[0] != "a" {
		t.Errorf("OrderedItems exposed internal storage: %v", got)
	}
}

func TestStatusSummary(t *testing.T) {
	tests := []struct {
		add  int
		want string
	}{
		{0, "Select images (up to 3)"},
		{2, "Selected 2/3 images"},
		{3, "Selected 3/3 images (limit reached)"},
	}
	for _, tt := range tests {
		s := New(3)
		for i := 0; i < tt.add; i++ {
			s.Add(fmt.Sprintf("img%d", i))
		}
		st := s.Status()
		if st.Summary != tt.want {
			t.Errorf("Summary with %d items = %q, want %q", tt.add, st.Summary, tt.want)
		}
		if st.Remaining != 3-tt.add {
			t.Errorf("Remaining = %d, want %d", st.Remaining, 3-tt.add)
		}
	}
}

// TestRandomOperationsKeepRanksDense checks that after any sequence of
// adds and removes the ranks are exactly 1..Count() in selection order,
// and that removal preserves the relative order of survivors.
func TestRandomOperationsKeepRanksDense(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := New(DefaultCapacity)
	pool := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	for step := 0; step < 2000; step++ {
		item := pool[rng.Intn(len(pool))]
		before := s.OrderedItems()

		if s.IsSelected(item) {
			if _, err := s.Remove(item); err != nil {
				t.Fatalf("step %d: Remove(%s) error: %v", step, item, err)
			}
			var want []string
			for _, it := range before {
				if it != item {
					want = append(want, it)
				}
			}
			if got := s.OrderedItems(); !reflect.DeepEqual(got, want) && !(len(got) == 0 && len(want) == 0) {
				t.Fatalf("step %d: order after removing %s = %v, want %v", step, item, got, want)
			}
		} else {
			_, err := s.Add(item)
			if len(before) >= DefaultCapacity {
				if !errors.Is(err, ErrCapacityExceeded) {
					t.Fatalf("step %d: Add on full set error = %v", step, err)
				}
			} else if err != nil {
				t.Fatalf("step %d: Add(%s) error: %v", step, item, err)
			}
		}

		for i, it := range s.OrderedItems() {
			if r, ok := s.RankOf(it); !ok || r != i+1 {
				t.Fatalf("step %d: RankOf(%s) = %d, want %d", step, it, r, i+1)
			}
		}
		if len(s.Status().Ranks) != s.Count() {
			t.Fatalf("step %d: rank map size %d != count %d", step, len(s.Status().Ranks), s.Count())
		}
	}
}
