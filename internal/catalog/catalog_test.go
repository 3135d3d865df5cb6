package catalog

import (
	"reflect"
	"testing"
)

var sample = []string{
	"class TestUser:",            // 0
	"    def test_create(self):", // 1
	"        pass",               // 2
	"    def test_delete(self):", // 3
	"        pass",               // 4
	"",                           // 5
	"class Helper:",              // 6
	"    def assist(self):",      // 7
	"        pass",               // 8
}

func TestBuild(t *testing.T) {
	t.Parallel()

	n := Build(sample, "tests/test_user.py", "tests.test_user")
	if n == nil {
		t.Fatal("expected a catalog tree")
	}

	if n.Kind != KindFile || n.DottedTarget != "tests.test_user" || n.DisplayName != "tests.test_user" {
		t.Errorf("file node = %+v", n)
	}
	if len(n.Children) != 1 {
		t.Fatalf("expected 1 class node (Helper has no tests), got %d", len(n.Children))
	}

	cls := n.Children[0]
	if cls.Kind != KindClass || cls.DisplayName != "TestUser" || cls.SourceLine != 0 {
		t.Errorf("class node = %+v", cls)
	}
	if cls.DottedTarget != "tests.test_user.TestUser" {
		t.Errorf("class target = %q", cls.DottedTarget)
	}

	if len(cls.Children) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(cls.Children))
	}
	m := cls.Children[1]
	if m.Kind != KindMethod || m.DisplayName != "test_delete" || m.SourceLine != 3 {
		t.Errorf("method node = %+v", m)
	}
	if m.DottedTarget != "tests.test_user.TestUser.test_delete" {
		t.Errorf("method target = %q", m.DottedTarget)
	}
}

func TestBuildNoTests(t *testing.T) {
	t.Parallel()

	lines := []string{
		"class Helper:",
		"    def assist(self):",
		"        pass",
	}
	if n := Build(lines, "helper.py", "helper"); n != nil {
		t.Errorf("expected nil tree for a file without tests, got %+v", n)
	}
	if n := Build(nil, "empty.py", "empty"); n != nil {
		t.Errorf("expected nil tree for an empty buffer, got %+v", n)
	}
}

// TestBuildStableIDs verifies that rebuilding from identical input yields
// identical node IDs, and that same-named methods at different lines get
// distinct IDs.
func TestBuildStableIDs(t *testing.T) {
	t.Parallel()

	first := Build(sample, "tests/test_user.py", "tests.test_user")
	second := Build(sample, "tests/test_user.py", "tests.test_user")
	if !reflect.DeepEqual(first, second) {
		t.Error("rebuild from identical input should produce an identical tree")
	}

	dup := []string{
		"class A:",              // 0
		"    def test_x(self):", // 1
		"        pass",          // 2
		"class A:",              // 3
		"    def test_x(self):", // 4
		"        pass",          // 5
	}
	n := Build(dup, "dup.py", "dup")
	if n == nil {
		t.Fatal("expected a tree")
	}
	seen := map[string]bool{}
	var walk func(*Node)
	walk = func(n *Node) {
		if seen[n.ID] {
			t.Errorf("duplicate node ID %q", n.ID)
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
}

func TestMethods(t *testing.T) {
	t.Parallel()

	n := Build(sample, "tests/test_user.py", "tests.test_user")
	ms := Methods(n)
	if len(ms) != 2 {
		t.Fatalf("expected 2 method leaves, got %d", len(ms))
	}
	if ms[0].DisplayName != "test_create" || ms[1].DisplayName != "test_delete" {
		t.Errorf("methods out of order: %s, %s", ms[0].DisplayName, ms[1].DisplayName)
	}

	if got := Methods(nil); got != nil {
		t.Errorf("Methods(nil) = %v, want nil", got)
	}
}
