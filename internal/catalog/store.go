package catalog

import "sort"

// Store maps buffer identities to their current catalog subtrees. Rebuild
// bookkeeping lives here explicitly rather than in package state; the owner
// of a Store serializes access to it.
type Store struct {
	entries map[string]*Node
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Node)}
}

// Update rebuilds the catalog for bufferID from lines, replacing any prior
// subtree wholesale. A rebuild that finds no tests removes the entry.
// Returns the new subtree, nil when none.
func (s *Store) Update(bufferID string, lines []string, modulePath string) *Node {
	delete(s.entries, bufferID) // stale subtree goes first
	n := Build(lines, bufferID, modulePath)
	if n != nil {
		s.entries[bufferID] = n
	}
	return n
}

// Remove drops the subtree for bufferID, if any.
func (s *Store) Remove(bufferID string) {
	delete(s.entries, bufferID)
}

// Get returns the current subtree for bufferID.
func (s *Store) Get(bufferID string) (*Node, bool) {
	n, ok := s.entries[bufferID]
	return n, ok
}

// Len reports how many buffers currently have entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// BufferIDs returns the tracked buffer identities, sorted.
func (s *Store) BufferIDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
