package xorname

import (
	"math/rand"
	"testing"
)

func mustParse(t *testing.T, s string) Prefix {
	t.Helper()
	p, err := ParsePrefix(s)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return p
}

func TestNewPrefixCanonical(t *testing.T) {
	// Prefixes built from different names with the same leading bits must be
	// equal: the tail is cleared on construction.
	rng := rand.New(rand.NewSource(3))
	a := Random(rng)
	b := a
	b[XorNameLen-1] ^= 0xff

	if NewPrefix(8, a) != NewPrefix(8, b) {
		t.Fatalf("prefixes with equal leading bits should be equal")
	}
}

func TestNewPrefixClamps(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	name := Random(rng)

	p := NewPrefix(1000, name)
	if p.BitCount() != XorNameLen*8 {
		t.Fatalf("bit count should clamp to %d, got %d", XorNameLen*8, p.BitCount())
	}
	if !p.Matches(name) {
		t.Fatalf("full-length prefix should match its own name")
	}
}

func TestMatchesAndSubstitute(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		name := Random(rng)
		p := NewPrefix(uint(rng.Intn(20)), Random(rng))

		sub := p.SubstitutedIn(name)
		if !p.Matches(sub) {
			t.Fatalf("substituted name should match the prefix")
		}
		// Substitution is idempotent on already-matching names.
		if p.SubstitutedIn(sub) != sub {
			t.Fatalf("substitution should be idempotent")
		}
		if p.Matches(name) && sub != name {
			t.Fatalf("substitution should not change a matching name")
		}
	}
}

func TestIsCompatible(t *testing.T) {
	root := mustParse(t, "")
	p0 := mustParse(t, "0")
	p1 := mustParse(t, "1")
	p01 := mustParse(t, "01")

	cases := []struct {
		a, b Prefix
		want bool
	}{
		{root, p0, true},
		{root, p1, true},
		{p0, p01, true},
		{p0, p1, false},
		{p1, p01, false},
		{p01, p01, true},
	}
	for _, c := range cases {
		if got := c.a.IsCompatible(c.b); got != c.want {
			t.Fatalf("IsCompatible(%q, %q): got %v, want %v", c.a, c.b, got, c.want)
		}
		// Compatibility is symmetric.
		if got := c.b.IsCompatible(c.a); got != c.want {
			t.Fatalf("IsCompatible(%q, %q): got %v, want %v", c.b, c.a, got, c.want)
		}
		// And equivalent to one being an ancestor of the other.
		anc := c.a.IsAncestorOf(c.b) || c.b.IsAncestorOf(c.a)
		if anc != c.want {
			t.Fatalf("ancestor relation for %q, %q: got %v, want %v", c.a, c.b, anc, c.want)
		}
	}
}

func TestIsNeighbour(t *testing.T) {
	p0 := mustParse(t, "0")
	p1 := mustParse(t, "1")
	p00 := mustParse(t, "00")
	p01 := mustParse(t, "01")
	p10 := mustParse(t, "10")
	p111 := mustParse(t, "111")

	// Siblings produced by a split are neighbours but not compatible.
	if !p0.IsNeighbour(p1) || !p1.IsNeighbour(p0) {
		t.Fatalf("0 and 1 should be neighbours")
	}
	if p0.IsCompatible(p1) {
		t.Fatalf("0 and 1 should not be compatible")
	}

	if !p00.IsNeighbour(p01) {
		t.Fatalf("00 and 01 should be neighbours")
	}
	if !p00.IsNeighbour(p10) {
		t.Fatalf("00 and 10 should be neighbours")
	}
	if p00.IsNeighbour(p111) {
		t.Fatalf("00 and 111 differ in more than one bit")
	}
	// A prefix is not its own neighbour, nor a neighbour of its ancestors.
	if p0.IsNeighbour(p0) {
		t.Fatalf("a prefix is not its own neighbour")
	}
	if p0.IsNeighbour(p00) {
		t.Fatalf("ancestors are not neighbours")
	}
}

func TestSiblingAndExtend(t *testing.T) {
	p0 := mustParse(t, "0")

	if p0.Sibling() != mustParse(t, "1") {
		t.Fatalf("sibling of 0 should be 1")
	}
	if p0.Extend(true) != mustParse(t, "01") {
		t.Fatalf("extending 0 with 1 should give 01")
	}
	if p0.Extend(false).Sibling() != mustParse(t, "01") {
		t.Fatalf("sibling of 00 should be 01")
	}

	root := mustParse(t, "")
	if root.Sibling() != root {
		t.Fatalf("the root prefix is its own sibling")
	}
	if p0.Popped() != root {
		t.Fatalf("popping 0 should give the root prefix")
	}
}

func TestAncestors(t *testing.T) {
	p := mustParse(t, "0110")

	want := []string{"", "0", "01", "011"}
	it := p.Ancestors()

	for round := 0; round < 2; round++ {
		var got []string
		for {
			a, ok := it.Next()
			if !ok {
				break
			}
			got = append(got, a.String())
		}
		if len(got) != len(want) {
			t.Fatalf("round %d: got %v, want %v", round, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("round %d: got %v, want %v", round, got, want)
			}
		}
		it.Reset()
	}

	if _, ok := mustParse(t, "").Ancestors().Next(); ok {
		t.Fatalf("the root prefix has no ancestors")
	}
}

func TestBounds(t *testing.T) {
	p := mustParse(t, "10")

	lower := p.LowerBound()
	upper := p.UpperBound()

	if !p.Matches(lower) || !p.Matches(upper) {
		t.Fatalf("bounds should match the prefix")
	}
	if lower.Cmp(upper) >= 0 {
		t.Fatalf("lower bound should order before upper bound")
	}
	// All bits after the prefix are zero in the lower bound and one in the
	// upper bound.
	for i := p.BitCount(); i < XorNameLen*8; i++ {
		if lower.Bit(i) {
			t.Fatalf("lower bound bit %d should be zero", i)
		}
		if !upper.Bit(i) {
			t.Fatalf("upper bound bit %d should be one", i)
		}
	}
}

func TestParsePrefixRejectsGarbage(t *testing.T) {
	if _, err := ParsePrefix("01x"); err == nil {
		t.Fatalf("non-binary prefix string should be rejected")
	}
}
