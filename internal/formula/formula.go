package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError indicates a formula string that is not syntactically valid.
// Unknown element symbols are not a parse error; only malformed input is.
type ParseError struct {
	Formula string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing formula %q: %s", e.Formula, e.Reason)
}

// Term is one element/count pair in a parsed formula.
type Term struct {
	Element string
	Count   int
}

// Composition is a parsed chemical formula. Terms are kept in first-appearance
// order; repeated element symbols are merged into a single term.
type Composition struct {
	Formula string
	Terms   []Term
}

// Parse splits a formula such as "BeAlN2" into element/count terms. An element
// token is an uppercase letter optionally followed by one lowercase letter,
// optionally followed by a positive integer count (default 1). Whitespace
// between tokens is ignored.
func Parse(s string) (Composition, error) {
	f := strings.TrimSpace(s)
	if f == "" {
		return Composition{}, &ParseError{Formula: s, Reason: "empty formula"}
	}

	var terms []Term
	i := 0
	for i < len(f) {
		c := f[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		if c < 'A' || c > 'Z' {
			return Composition{}, &ParseError{
				Formula: s,
				Reason:  fmt.Sprintf("unexpected character %q at position %d", c, i),
			}
		}

		sym := string(c)
		i++
		if i < len(f) && f[i] >= 'a' && f[i] <= 'z' {
			sym += string(f[i])
			i++
		}

		count := 1
		start := i
		for i < len(f) && f[i] >= '0' && f[i] <= '9' {
			i++
		}
		if i > start {
			n, err := strconv.Atoi(f[start:i])
			if err != nil {
				return Composition{}, &ParseError{
					Formula: s,
					Reason:  fmt.Sprintf("invalid count %q for element %s", f[start:i], sym),
				}
			}
			if n == 0 {
				return Composition{}, &ParseError{
					Formula: s,
					Reason:  fmt.Sprintf("zero count for element %s", sym),
				}
			}
			count = n
		}

		terms = mergeTerm(terms, sym, count)
	}

	if len(terms) == 0 {
		return Composition{}, &ParseError{Formula: s, Reason: "no element symbols"}
	}
	return Composition{Formula: strings.Join(strings.Fields(f), ""), Terms: terms}, nil
}

func mergeTerm(terms []Term, sym string, count int) []Term {
	for i := range terms {
		if terms[i].Element == sym {
			terms[i].Count += count
			return terms
		}
	}
	return append(terms, Term{Element: sym, Count: count})
}

// Elements returns the distinct element symbols in first-appearance order.
func (c Composition) Elements() []string {
	out := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		out[i] = t.Element
	}
	return out
}

// NumElements returns the number of distinct elements.
func (c Composition) NumElements() int {
	return len(c.Terms)
}

// TotalAtoms returns the sum of all term counts.
func (c Composition) TotalAtoms() int {
	total := 0
	for _, t := range c.Terms {
		total += t.Count
	}
	return total
}

// ReducedCounts returns the term counts divided by their greatest common
// divisor, in term order. "Be2Al2N4" reduces to [1 1 2].
func (c Composition) ReducedCounts() []int {
	if len(c.Terms) == 0 {
		return nil
	}
	g := c.Terms[0].Count
	for _, t := range c.Terms[1:] {
		g = gcd(g, t.Count)
	}
	out := make([]int, len(c.Terms))
	for i, t := range c.Terms {
		out[i] = t.Count / g
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
