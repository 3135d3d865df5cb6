package qualname

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	lines := []string{
		"class UserService:",
		"    def get_user(self, id):",
		"        return self.db[id]",
	}

	got, ok := Resolve(lines, 2, "src.services.user_service")
	if !ok {
		t.Fatal("expected a qualified name")
	}
	want := "src.services.user_service.UserService.get_user"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveAbsent(t *testing.T) {
	t.Parallel()

	lines := []string{
		"",
		"import os",
		"x = 1",
	}

	for _, cursor := range []int{0, 1, 2} {
		got, ok := Resolve(lines, cursor, "pkg.mod")
		if ok {
			t.Errorf("cursor %d: expected absent, got %q", cursor, got)
		}
		if got != "" {
			t.Errorf("cursor %d: absent result must be empty, got %q", cursor, got)
		}
	}
}

// TestResolveRoundTrip verifies that stripping the module path prefix from a
// resolved name recovers the dotted scope chain exactly.
func TestResolveRoundTrip(t *testing.T) {
	t.Parallel()

	lines := []string{
		"class Outer:",
		"    class Inner:",
		"        def leaf(self):",
		"            pass",
	}

	const mod = "pkg.deep"
	got, ok := Resolve(lines, 3, mod)
	if !ok {
		t.Fatal("expected a qualified name")
	}
	chain := strings.TrimPrefix(got, mod+".")
	if chain != "Outer.Inner.leaf" {
		t.Errorf("chain portion = %q, want %q", chain, "Outer.Inner.leaf")
	}
}

func TestModulePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		root string
		want string
	}{
		{"nested under root", "/proj/src/services/user_service.py", "/proj", "src.services.user_service"},
		{"directly under root", "/proj/main.py", "/proj", "main"},
		{"no root", "/anywhere/deep/util.py", "", "util"},
		{"outside root", "/elsewhere/util.py", "/proj", "util"},
		{"init module", "/proj/pkg/__init__.py", "/proj", "pkg.__init__"},
		{"no extension", "/proj/scripts/tool", "/proj", "scripts.tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ModulePath(tt.path, tt.root)
			if got != tt.want {
				t.Errorf("ModulePath(%q, %q) = %q, want %q", tt.path, tt.root, got, tt.want)
			}
		})
	}
}
