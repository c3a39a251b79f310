package category

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWasteCodes(t *testing.T) {
	set := Waste()
	want := map[string]int{
		"Plastic":  0,
		"Metal":    1,
		"Glass":    2,
		"Textile":  3,
		"Steel":    4,
		"Chemical": 5,
	}
	for label, code := range want {
		got, ok := set.Code(label)
		if !ok || got != code {
			t.Errorf("Code(%q) = %d, %v; want %d, true", label, got, ok, code)
		}
		if back := set.Labels()[code]; back != label {
			t.Errorf("Labels()[%d] = %q, want %q", code, back, label)
		}
	}
	if set.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", set.Len(), len(want))
	}
}

func TestUnknownLabels(t *testing.T) {
	set := Waste()
	for _, label := range []string{"", "plastic", "PLASTIC", "Wood", " Metal"} {
		if _, ok := set.Code(label); ok {
			t.Errorf("Code(%q) unexpectedly succeeded", label)
		}
	}
}

func TestLabelsIsCopy(t *testing.T) {
	set := Waste()
	labels := set.Labels()
	labels[0] = "Wood"
	if diff := cmp.Diff([]string{"Plastic", "Metal", "Glass", "Textile", "Steel", "Chemical"}, set.Labels()); diff != "" {
		t.Errorf("Labels() changed after caller mutation, diff(-want, +got): %v", diff)
	}
}

func TestNewSkipsDuplicates(t *testing.T) {
	set := New("a", "b", "a", "c")
	if diff := cmp.Diff([]string{"a", "b", "c"}, set.Labels()); diff != "" {
		t.Errorf("unexpected labels, diff(-want, +got): %v", diff)
	}
	if c, _ := set.Code("c"); c != 2 {
		t.Errorf("Code(c) = %d, want 2", c)
	}
}
