package gdccache

import "gdcmeta/internal/record"

// Snapshot is an immutable in-memory view of the stored index. It is safe for
// concurrent reads.
type Snapshot struct {
	entries map[string]record.Fields
}

// NewSnapshot builds a snapshot from entries; later duplicates win.
func NewSnapshot(entries []record.Fields) *Snapshot {
	m := make(map[string]record.Fields, len(entries))
	for _, e := range entries {
		if e.ID != "" {
			m[e.ID] = e
		}
	}
	return &Snapshot{entries: m}
}

// Lookup returns a copy of the cached fields for id.
func (s *Snapshot) Lookup(id string) (record.Fields, bool) {
	if s == nil {
		return record.Fields{}, false
	}
	f, ok := s.entries[id]
	if !ok {
		return record.Fields{}, false
	}
	f.ACL = append([]string(nil), f.ACL...)
	return f, true
}

// Len returns the number of cached entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
