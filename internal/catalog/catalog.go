// Package catalog builds and tracks the file → class → method trees of
// discovered test methods, one tree per buffer.
package catalog

import (
	"fmt"

	"github.com/phobologic/pyscope/internal/scan"
)

// Node kinds.
const (
	KindFile   = "file"
	KindClass  = "class"
	KindMethod = "method"
)

// Node is one entry in a test catalog tree. DottedTarget is the string an
// external runner accepts (`python -m unittest pkg.module.Class.method`).
type Node struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	SourceLine   int     `json:"sourceLine"`
	Kind         string  `json:"kind"`
	DottedTarget string  `json:"dottedTarget"`
	Children     []*Node `json:"children,omitempty"`
}

// Build scans lines and returns the catalog tree for one buffer, or nil when
// no class contains a test method — a file contributes a node only when it
// has at least one class with tests. fileID anchors node identity and must
// be stable across rebuilds; a path works.
func Build(lines []string, fileID, modulePath string) *Node {
	classes := scan.TestMethodsByClass(lines)
	if len(classes) == 0 {
		return nil
	}

	file := &Node{
		ID:           nodeID(fileID, KindFile, modulePath, 0),
		DisplayName:  modulePath,
		Kind:         KindFile,
		DottedTarget: modulePath,
	}
	for _, ct := range classes {
		cls := &Node{
			ID:           nodeID(fileID, KindClass, ct.Class.Name, ct.Class.Line),
			DisplayName:  ct.Class.Name,
			SourceLine:   ct.Class.Line,
			Kind:         KindClass,
			DottedTarget: modulePath + "." + ct.Class.Name,
		}
		for _, m := range ct.Methods {
			cls.Children = append(cls.Children, &Node{
				ID:           nodeID(fileID, KindMethod, m.Name, m.Line),
				DisplayName:  m.Name,
				SourceLine:   m.Line,
				Kind:         KindMethod,
				DottedTarget: cls.DottedTarget + "." + m.Name,
			})
		}
		file.Children = append(file.Children, cls)
	}
	return file
}

// Methods returns the method leaves of a tree in source order.
func Methods(n *Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, cls := range n.Children {
		out = append(out, cls.Children...)
	}
	return out
}

// nodeID concatenates file identity, kind tag, name and definition line into
// a stable identity, so same-named definitions at different lines never
// collide.
func nodeID(fileID, kind, name string, line int) string {
	return fmt.Sprintf("%s::%s::%s::%d", fileID, kind, name, line)
}
