package resolver

// DeletionSet is an insertion-ordered set of paths marked for deletion
type DeletionSet struct {
	paths []string
	index map[string]struct{}
}

// NewDeletionSet returns an empty set
func NewDeletionSet() *DeletionSet {
	return &DeletionSet{index: make(map[string]struct{})}
}

// Add marks path for deletion. Adding a path twice is a no-op.
func (s *DeletionSet) Add(path string) bool {
	if s.Contains(path) {
		return false
	}
	s.index[path] = struct{}{}
	s.paths = append(s.paths, path)
	return true
}

// Contains reports whether path is marked for deletion
func (s *DeletionSet) Contains(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Paths returns the marked paths in the order they were added
func (s *DeletionSet) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len returns the number of marked paths
func (s *DeletionSet) Len() int {
	return len(s.paths)
}
