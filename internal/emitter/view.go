package emitter

import "sync"

// View owns the latest fetched list and memoizes its projection. Each
// Replace swaps the list wholesale; nothing accumulates across fetches.
// A View is safe for concurrent use.
type View struct {
	mu      sync.Mutex
	raw     []Record
	version uint64

	memoOK      bool
	memoVersion uint64
	memoFilter  Filter
	memo        []Record
	computes    int
}

// NewView returns an empty view.
func NewView() *View {
	return &View{}
}

// Replace installs records as the new raw list.
func (v *View) Replace(records []Record) {
	cp := make([]Record, len(records))
	copy(cp, records)

	v.mu.Lock()
	v.raw = cp
	v.version++
	v.mu.Unlock()
}

// Raw returns a copy of the current raw list.
func (v *View) Raw() []Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := make([]Record, len(v.raw))
	copy(cp, v.raw)
	return cp
}

// Version increments on every Replace.
func (v *View) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.version
}

// Len is the size of the raw list.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.raw)
}

// Visible returns Apply(raw, f), recomputing only when the raw list or the
// filter changed since the previous call. The returned slice is shared
// and must not be modified.
func (v *View) Visible(f Filter) []Record {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.memoOK && v.memoVersion == v.version && v.memoFilter == f {
		return v.memo
	}
	v.memo = Apply(v.raw, f)
	v.memoVersion = v.version
	v.memoFilter = f
	v.memoOK = true
	v.computes++
	return v.memo
}

// Find returns the normalized record with the given id from the raw list.
func (v *View) Find(id ID) (Record, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.raw {
		if r.ID == id {
			return Normalize(r), true
		}
	}
	return Record{}, false
}
