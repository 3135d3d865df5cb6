// Package report renders test catalogs and run results for terminals and
// agent consumption.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/phobologic/pyscope/internal/catalog"
	"github.com/phobologic/pyscope/internal/runner"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Tree renders catalogs as an indented tree with 1-based line numbers.
func Tree(cats []catalog.FileCatalog) string {
	if len(cats) == 0 {
		return "no test methods found\n"
	}

	var b strings.Builder
	methods := 0
	for _, fc := range cats {
		fmt.Fprintf(&b, "%s (%s)\n", fc.Node.DisplayName, fc.Path)
		for _, cls := range fc.Node.Children {
			fmt.Fprintf(&b, "  %s:%d\n", cls.DisplayName, cls.SourceLine+1)
			for _, m := range cls.Children {
				methods++
				fmt.Fprintf(&b, "    %s:%d\n", m.DisplayName, m.SourceLine+1)
			}
		}
	}
	fmt.Fprintf(&b, "%d test methods in %d files\n", methods, len(cats))
	return b.String()
}

// Tabular renders catalogs in a compact tabular text form, one row per
// file, class and method. Line numbers are 1-based.
func Tabular(root string, cats []catalog.FileCatalog) string {
	parts := []string{fmt.Sprintf("root: %s", encodeValue(root))}

	var fileRows, classRows, methodRows [][]string
	for _, fc := range cats {
		module := fc.Node.DisplayName
		methodCount := 0
		for _, cls := range fc.Node.Children {
			methodCount += len(cls.Children)
		}
		fileRows = append(fileRows, []string{
			module,
			fc.Path,
			strconv.Itoa(len(fc.Node.Children)),
			strconv.Itoa(methodCount),
		})
		for _, cls := range fc.Node.Children {
			classRows = append(classRows, []string{
				module,
				cls.DisplayName,
				strconv.Itoa(cls.SourceLine + 1),
				cls.DottedTarget,
			})
			for _, m := range cls.Children {
				methodRows = append(methodRows, []string{
					module,
					cls.DisplayName,
					m.DisplayName,
					strconv.Itoa(m.SourceLine + 1),
					m.DottedTarget,
				})
			}
		}
	}

	parts = append(parts, formatTabular("files", []string{"module", "path", "classes", "methods"}, fileRows))
	parts = append(parts, formatTabular("classes", []string{"module", "class", "line", "target"}, classRows))
	parts = append(parts, formatTabular("methods", []string{"module", "class", "method", "line", "target"}, methodRows))
	return strings.Join(parts, "\n")
}

// JSON renders catalogs as indented JSON.
func JSON(cats []catalog.FileCatalog) (string, error) {
	out := struct {
		Files []catalog.FileCatalog `json:"files"`
	}{Files: cats}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding catalogs: %w", err)
	}
	return string(data), nil
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// RunSummary renders one verdict line per result and a totals line.
func RunSummary(results []*runner.Result) string {
	var b strings.Builder
	passed := 0
	for _, res := range results {
		verdict := failStyle.Render("FAIL")
		if res.Passed {
			verdict = passStyle.Render("PASS")
			passed++
		}
		fmt.Fprintf(&b, "%s %s %s\n", verdict, res.Target,
			dimStyle.Render(res.Duration.Round(time.Millisecond).String()))
	}

	failed := len(results) - passed
	totals := fmt.Sprintf("%d passed, %d failed (%d total)", passed, failed, len(results))
	if failed > 0 {
		totals = failStyle.Render(totals)
	} else {
		totals = passStyle.Render(totals)
	}
	b.WriteString(totals + "\n")
	return b.String()
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
