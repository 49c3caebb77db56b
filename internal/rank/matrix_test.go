package rank

import "testing"

func TestComputeMatrixClassification(t *testing.T) {
	// a beats b (direct), b beats c (direct), so a/c is inferred; d is
	// unrelated to everything.
	ids := []string{"a", "b", "c", "d"}
	m := ComputeMatrix([]Comparison{
		comp("a", "b"),
		comp("b", "c"),
	}, ids)

	tests := []struct {
		a, b string
		want Relation
	}{
		{"a", "b", RelationDirect},
		{"b", "a", RelationDirect},
		{"b", "c", RelationDirect},
		{"a", "c", RelationInferred},
		{"c", "a", RelationInferred},
		{"a", "d", RelationUnknown},
		{"d", "c", RelationUnknown},
		{"a", "a", RelationDirect}, // diagonal convention
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := m.Relation(tt.a, tt.b); got != tt.want {
				t.Errorf("Relation(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatrixEveryPairClassified(t *testing.T) {
	// Every ordered pair gets exactly one classification; nothing sparse.
	ids := []string{"a", "b", "c", "d", "e"}
	m := ComputeMatrix([]Comparison{
		comp("a", "b"),
		comp("c", "d"),
	}, ids)

	for _, a := range ids {
		for _, b := range ids {
			r := m.Relation(a, b)
			if r != RelationDirect && r != RelationInferred && r != RelationUnknown {
				t.Fatalf("Relation(%s, %s) = %d, not a valid relation", a, b, r)
			}
		}
	}
}

func TestComputeMatrixSkipsStaleComparisons(t *testing.T) {
	// A comparison referencing a listing outside the current set is not
	// fatal and does not appear in the matrix, but its edge still carries
	// transitive inference.
	ids := []string{"a", "c"}
	m := ComputeMatrix([]Comparison{
		comp("a", "gone"),
		comp("gone", "c"),
	}, ids)

	if got := m.Relation("a", "c"); got != RelationInferred {
		t.Errorf("Relation(a, c) = %s, want inferred through the stale listing", got)
	}
	if _, ok := m.Index("gone"); ok {
		t.Error("stale listing must not be part of the matrix")
	}
}

func TestSimulateResolvesUnknowns(t *testing.T) {
	ids := []string{"a", "b", "c"}
	m := ComputeMatrix([]Comparison{comp("a", "b")}, ids)

	if got := m.Relation("b", "c"); got != RelationUnknown {
		t.Fatalf("precondition failed: Relation(b, c) = %s", got)
	}

	sim := m.Simulate("b", "c")

	if got := sim.Relation("b", "c"); got != RelationDirect {
		t.Errorf("simulated Relation(b, c) = %s, want direct", got)
	}
	if got := sim.Relation("a", "c"); got != RelationInferred {
		t.Errorf("simulated Relation(a, c) = %s, want inferred via a>b>c", got)
	}

	// Input matrix is untouched.
	if got := m.Relation("b", "c"); got != RelationUnknown {
		t.Errorf("Simulate mutated its receiver: Relation(b, c) = %s", got)
	}
}

func TestSimulateNeverDowngradesDirect(t *testing.T) {
	ids := []string{"a", "b", "c"}
	m := ComputeMatrix([]Comparison{comp("a", "b")}, ids)
	sim := m.Simulate("c", "a")

	if got := sim.Relation("a", "b"); got != RelationDirect {
		t.Errorf("direct relation reclassified to %s after simulation", got)
	}
}

func TestUnknownPairsDeterministic(t *testing.T) {
	ids := []string{"a", "b", "c"}
	m := ComputeMatrix(nil, ids)

	pairs := m.UnknownPairs()
	want := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}
	if len(pairs) != len(want) {
		t.Fatalf("UnknownPairs() returned %d pairs, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d = %v, want %v", i, pairs[i], want[i])
		}
	}
	if m.CountUnknown() != 6 {
		t.Errorf("CountUnknown() = %d, want 6 ordered pairs", m.CountUnknown())
	}
}

func TestMatrixWithContradiction(t *testing.T) {
	// A cycle makes both directions inferrable; the matrix still reports a
	// single classification per pair.
	ids := []string{"a", "b", "c"}
	m := ComputeMatrix([]Comparison{
		comp("a", "b"),
		comp("b", "c"),
		comp("c", "a"),
	}, ids)

	if got := m.Relation("a", "c"); got != RelationInferred {
		t.Errorf("Relation(a, c) = %s, want inferred (via the cycle)", got)
	}
	if m.CountUnknown() != 0 {
		t.Errorf("CountUnknown() = %d, want 0", m.CountUnknown())
	}
}
