package report

import (
	"strings"
	"testing"
	"time"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/runner"
	"github.com/phobologic/pyscope/internal/scan"
)

func sampleCatalogs(t *testing.T) []catalog.FileCatalog {
	t.Helper()

	userLines := scan.SplitLines(strings.Join([]string{
		"class TestUser:",
		"    def test_create(self):",
		"        pass",
		"    def test_delete(self):",
		"        pass",
	}, "\n"))
	authLines := scan.SplitLines(strings.Join([]string{
		"# auth flows",
		"",
		"class TestAuth:",
		"    def test_login(self):",
		"        pass",
	}, "\n"))

	user := catalog.Build(userLines, "tests/test_user.py", "tests.test_user")
	auth := catalog.Build(authLines, "tests/api/test_auth.py", "tests.api.test_auth")
	if user == nil || auth == nil {
		t.Fatal("sample buffers must produce catalogs")
	}

	return []catalog.FileCatalog{
		{Path: "tests/test_user.py", Node: user},
		{Path: "tests/api/test_auth.py", Node: auth},
	}
}

func TestTabular(t *testing.T) {
	t.Parallel()

	got := Tabular("proj", sampleCatalogs(t))

	lines := strings.Split(got, "\n")
	want := []string{
		"root: proj",
		"files[2]{module,path,classes,methods}:",
		"  tests.test_user,tests/test_user.py,1,2",
		"  tests.api.test_auth,tests/api/test_auth.py,1,1",
		"classes[2]{module,class,line,target}:",
		"  tests.test_user,TestUser,1,tests.test_user.TestUser",
		"  tests.api.test_auth,TestAuth,3,tests.api.test_auth.TestAuth",
		"methods[3]{module,class,method,line,target}:",
		"  tests.test_user,TestUser,test_create,2,tests.test_user.TestUser.test_create",
		"  tests.test_user,TestUser,test_delete,4,tests.test_user.TestUser.test_delete",
		"  tests.api.test_auth,TestAuth,test_login,4,tests.api.test_auth.TestAuth.test_login",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: got %q, want %q", i, lines[i], w)
		}
	}
}

func TestTabularEmpty(t *testing.T) {
	t.Parallel()

	got := Tabular("proj", nil)
	if !strings.Contains(got, "files[0]{module,path,classes,methods}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if !strings.Contains(got, "methods[0]{module,class,method,line,target}:") {
		t.Errorf("expected empty methods section, got:\n%s", got)
	}
}

func TestTree(t *testing.T) {
	t.Parallel()

	got := Tree(sampleCatalogs(t))

	want := strings.Join([]string{
		"tests.test_user (tests/test_user.py)",
		"  TestUser:1",
		"    test_create:2",
		"    test_delete:4",
		"tests.api.test_auth (tests/api/test_auth.py)",
		"  TestAuth:3",
		"    test_login:4",
		"3 test methods in 2 files",
		"",
	}, "\n")
	if got != want {
		t.Errorf("tree mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestTreeEmpty(t *testing.T) {
	t.Parallel()

	got := Tree(nil)
	if !strings.Contains(got, "no test methods") {
		t.Errorf("expected empty notice, got %q", got)
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	got, err := JSON(sampleCatalogs(t))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	for _, frag := range []string{
		`"path": "tests/test_user.py"`,
		`"displayName": "TestAuth"`,
		`"dottedTarget": "tests.test_user.TestUser.test_delete"`,
		`"kind": "method"`,
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("output missing %s:\n%s", frag, got)
		}
	}
}

func TestRunSummary(t *testing.T) {
	t.Parallel()

	results := []*runner.Result{
		{Target: "tests.test_user.TestUser.test_create", Passed: true, Duration: 12 * time.Millisecond},
		{Target: "tests.test_user.TestUser.test_delete", Passed: false, ExitCode: 1, Duration: 40 * time.Millisecond},
	}

	got := RunSummary(results)
	for _, frag := range []string{
		"PASS",
		"FAIL",
		"tests.test_user.TestUser.test_create",
		"tests.test_user.TestUser.test_delete",
		"1 passed, 1 failed (2 total)",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("summary missing %q:\n%s", frag, got)
		}
	}
}

func TestRunSummaryAllPassed(t *testing.T) {
	t.Parallel()

	results := []*runner.Result{
		{Target: "tests.test_user.TestUser.test_create", Passed: true, Duration: time.Millisecond},
	}

	got := RunSummary(results)
	if !strings.Contains(got, "1 passed, 0 failed (1 total)") {
		t.Errorf("unexpected totals:\n%s", got)
	}
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"newline", "a\nb", `"a\nb"`},
		{"true keyword", "true", `"true"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "tests/test_user.py", "tests/test_user.py"},
		{"dotted target", "tests.test_user.TestUser.test_create", "tests.test_user.TestUser.test_create"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
