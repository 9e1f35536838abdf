package feed

import (
	"reflect"
	"sort"
	"testing"
)

func TestShuffleIsPermutation(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	orig := append([]int(nil), in...)

	out := Shuffle(in, seeded(3))
	if !reflect.DeepEqual(in, orig) {
		t.Fatalf("input mutated: got=%v want=%v", in, orig)
	}
	sorted := append([]int(nil), out...)
	sort.Ints(sorted)
	if !reflect.DeepEqual(sorted, orig) {
		t.Fatalf("not a permutation: got=%v", out)
	}
}

func TestShuffleEmptyAndNilRand(t *testing.T) {
	if out := Shuffle([]string{}, nil); len(out) != 0 {
		t.Fatalf("expected empty output, got=%v", out)
	}
	if out := Shuffle([]string{"only"}, nil); !reflect.DeepEqual(out, []string{"only"}) {
		t.Fatalf("single element: got=%v", out)
	}
	out := Shuffle([]string{"a", "b", "c"}, nil)
	if len(out) != 3 {
		t.Fatalf("length: got=%d want=3", len(out))
	}
}

func TestShuffleSeeded(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e"}
	a := Shuffle(in, seeded(99))
	b := Shuffle(in, seeded(99))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave different orders: %v vs %v", a, b)
	}
}
