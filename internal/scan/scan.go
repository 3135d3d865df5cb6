// Package scan infers the nesting of Python class and function
// definitions from indentation alone.
//
// Matching is line-local and heuristic: there is no tokenizer, so a
// def-like line inside a triple-quoted string still registers. Both
// traversals are a single pass over an immutable buffer snapshot.
package scan

import (
	"regexp"
	"sort"
	"strings"
)

// Kind classifies a single line of Python source.
type Kind string

const (
	Blank      Kind = "blank"
	Comment    Kind = "comment"
	ClassDef   Kind = "class"
	FuncDef    Kind = "func"
	TestMethod Kind = "test"
	Other      Kind = "other"
)

// Line is the classification of one raw source line.
type Line struct {
	Kind   Kind
	Indent int    // leading whitespace width; spaces and tabs each count one
	Name   string // defined identifier, for definition kinds only
}

// Marker is a recognized class or function definition on one line.
type Marker struct {
	Kind   Kind
	Name   string
	Indent int
	Line   int // zero-based
}

// Method is a test method discovered inside a class body.
type Method struct {
	Name string
	Line int
}

// ClassTests pairs a class definition with its test methods, in source order.
type ClassTests struct {
	Class   Marker
	Methods []Method
}

var (
	classRe      = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\b`)
	funcRe       = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\b`)
	testMethodRe = regexp.MustCompile(`^(?:async\s+)?def\s+(test_[A-Za-z0-9_]*)\(`)
)

// Classify inspects one raw line. Definition patterns are anchored to the
// trimmed content; a line matches at most one kind, class taking precedence.
func Classify(raw string) Line {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Line{Kind: Blank}
	}
	if strings.HasPrefix(trimmed, "#") {
		return Line{Kind: Comment, Indent: indentOf(raw)}
	}

	indent := indentOf(raw)
	if m := classRe.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: ClassDef, Indent: indent, Name: m[1]}
	}
	if m := testMethodRe.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: TestMethod, Indent: indent, Name: m[1]}
	}
	if m := funcRe.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: FuncDef, Indent: indent, Name: m[1]}
	}
	return Line{Kind: Other, Indent: indent}
}

// EnclosingChainAt returns the chain of definitions enclosing target,
// outermost first, with strictly increasing indents. An empty result means
// no enclosing definition exists at or above the line.
//
// Blank and comment lines are skipped. A target past the last line clamps
// to the last line; a negative target returns nothing.
func EnclosingChainAt(lines []string, target int) []Marker {
	if len(lines) == 0 || target < 0 {
		return nil
	}
	if target >= len(lines) {
		target = len(lines) - 1
	}

	// Full backward pass: disambiguation below compares the indents of
	// every candidate above the cursor, not just the nearest match.
	var found []Marker
	for i := target; i >= 0; i-- {
		cl := Classify(lines[i])
		switch cl.Kind {
		case ClassDef, FuncDef, TestMethod:
			found = append(found, Marker{Kind: cl.Kind, Name: cl.Name, Indent: cl.Indent, Line: i})
		}
	}

	// Outermost first. The sort must be stable: at equal indent the
	// marker nearest the cursor was found first and has to stay ahead
	// so the greedy filter keeps it over farther siblings.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Indent < found[j].Indent
	})

	// Keep a strictly increasing indent subsequence. This drops sibling
	// and uncle definitions at an indent already covered by a kept
	// ancestor, even though the backward pass collected them.
	var chain []Marker
	last := -1
	for _, m := range found {
		if m.Indent > last {
			chain = append(chain, m)
			last = m.Indent
		}
	}
	return chain
}

// TestMethodsByClass walks the whole buffer once and returns every class
// that contains at least one test method, in first-seen order. A method
// counts only when its line is indented strictly deeper than the nearest
// open class above it.
func TestMethodsByClass(lines []string) []ClassTests {
	type openClass struct {
		indent int
		idx    int // into classes
	}
	var classes []ClassTests
	var stack []openClass

	for i, raw := range lines {
		cl := Classify(raw)
		if cl.Kind == Blank || cl.Kind == Comment {
			continue // inert: never pops the stack
		}

		for len(stack) > 0 && stack[len(stack)-1].indent >= cl.Indent {
			stack = stack[:len(stack)-1]
		}

		switch cl.Kind {
		case ClassDef:
			classes = append(classes, ClassTests{
				Class: Marker{Kind: ClassDef, Name: cl.Name, Indent: cl.Indent, Line: i},
			})
			stack = append(stack, openClass{indent: cl.Indent, idx: len(classes) - 1})
		case TestMethod:
			if len(stack) > 0 && cl.Indent > stack[len(stack)-1].indent {
				rec := &classes[stack[len(stack)-1].idx]
				rec.Methods = append(rec.Methods, Method{Name: cl.Name, Line: i})
			}
		}
	}

	var out []ClassTests
	for _, ct := range classes {
		if len(ct.Methods) > 0 {
			out = append(out, ct)
		}
	}
	return out
}

// SplitLines splits buffer text into lines, tolerating CRLF endings.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func indentOf(s string) int {
	for i, r := range s {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(s)
}
