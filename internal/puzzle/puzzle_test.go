package puzzle

import "testing"

func TestGridEqual(t *testing.T) {
	a := Grid{{1, 2}, {3, 4}}
	b := Grid{{1, 2}, {3, 4}}
	c := Grid{{1, 2}, {3, 5}}

	if !a.Equal(b) {
		t.Fatal("expected equal grids to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected differing grids to compare unequal")
	}
	if a.Equal(Grid{{1, 2, 3}}) {
		t.Fatal("expected differing dimensions to compare unequal")
	}
}

func TestPuzzleIsMultiTest(t *testing.T) {
	p := &Puzzle{ID: "abc12345", Test: []TestCase{{}, {}}}
	if !p.IsMultiTest() {
		t.Fatal("expected two test cases to be multi-test")
	}
	p.Test = p.Test[:1]
	if p.IsMultiTest() {
		t.Fatal("expected one test case to not be multi-test")
	}
}

func TestPuzzleValidate(t *testing.T) {
	t.Run("rejects unequal row lengths", func(t *testing.T) {
		p := &Puzzle{
			ID:    "abc12345",
			Train: []Pair{{Input: Grid{{1, 2}, {3}}, Output: Grid{{1}}}},
			Test:  []TestCase{{Input: Grid{{1}}}},
		}
		if err := p.Validate(); err == nil {
			t.Fatal("expected error for unequal row lengths")
		}
	})

	t.Run("accepts well-formed puzzle", func(t *testing.T) {
		p := &Puzzle{
			ID:    "abc12345",
			Train: []Pair{{Input: Grid{{1, 2}}, Output: Grid{{2, 1}}}},
			Test:  []TestCase{{Input: Grid{{1, 2}}}},
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
