package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/phobologic/pyscope/internal/qualname"
	"github.com/phobologic/pyscope/internal/scan"
)

// FileCatalog pairs a workspace file with its catalog tree.
type FileCatalog struct {
	Path string `json:"path"` // relative to the workspace root
	Node *Node  `json:"catalog"`
}

// BuildFile reads one file and builds its catalog. The node is nil when the
// file contains no tests.
func BuildFile(root, rel string) (*Node, error) {
	abs := filepath.Join(root, rel)
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	modPath := qualname.ModulePath(abs, root)
	return Build(scan.SplitLines(string(data)), rel, modPath), nil
}

// BuildFiles reads and scans files concurrently and returns the catalogs of
// files that contain tests, in input order. Unreadable files produce a
// warning on stderr and are skipped.
func BuildFiles(root string, paths []string, stderr io.Writer) []FileCatalog {
	type result struct {
		index int
		node  *Node
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	var stderrMu sync.Mutex

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				node, err := BuildFile(root, paths[idx])
				if err != nil {
					stderrMu.Lock()
					_, _ = fmt.Fprintf(stderr, "Warning: %v\n", err)
					stderrMu.Unlock()
					continue
				}
				results <- result{index: idx, node: node}
			}
		}()
	}

	for i := range paths {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Reassemble in input order; files without tests contribute nothing.
	indexed := make([]*Node, len(paths))
	for r := range results {
		indexed[r.index] = r.node
	}

	var out []FileCatalog
	for i, n := range indexed {
		if n != nil {
			out = append(out, FileCatalog{Path: paths[i], Node: n})
		}
	}
	return out
}
