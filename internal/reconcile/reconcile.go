package reconcile

import (
	"sort"

	"gdcmeta/internal/manifest"
)

// Issue kinds.
const (
	KindUntracked = "untracked key"
	KindMismatch  = "filename mismatch"
	KindDuplicate = "duplicate record"
)

// Issue is one discrepancy found while reconciling.
type Issue struct {
	ID      string          `json:"did"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Detail  []manifest.Stub `json:"detail,omitempty"`
}

// Result is the outcome of one reconciliation run. It is not modified after
// Reconcile returns; accessors hand out copies.
type Result struct {
	reference map[string]manifest.Stub
	observed  map[string]manifest.Stub
	order     []string
	issues    []Issue
}

// BuildReference indexes reference stubs by id. The first occurrence of an id wins.
func BuildReference(stubs []manifest.Stub) map[string]manifest.Stub {
	out := make(map[string]manifest.Stub, len(stubs))
	for _, s := range stubs {
		if s.ID == "" {
			continue
		}
		if _, ok := out[s.ID]; ok {
			continue
		}
		out[s.ID] = s
	}
	return out
}

// Reconcile merges observed stubs (a bucket listing) against the reference
// index. Stubs absent from the reference or whose filename disagrees are
// dropped with an issue; the rest are merged with observed fields winning. A
// repeated id replaces the earlier merged entry and is reported.
func Reconcile(observed []manifest.Stub, reference map[string]manifest.Stub) *Result {
	res := &Result{
		reference: make(map[string]manifest.Stub, len(reference)),
		observed:  make(map[string]manifest.Stub),
	}
	for id, s := range reference {
		res.reference[id] = s
	}

	for _, stub := range observed {
		ref, ok := res.reference[stub.ID]
		if !ok {
			res.issues = append(res.issues, Issue{
				ID:      stub.ID,
				Kind:    KindUntracked,
				Message: "bucket key not present in reference manifest",
				Detail:  []manifest.Stub{stub},
			})
			continue
		}
		if ref.FileName != stub.FileName {
			res.issues = append(res.issues, Issue{
				ID:      stub.ID,
				Kind:    KindMismatch,
				Message: "bucket filename " + quote(stub.FileName) + " does not match reference " + quote(ref.FileName),
				Detail:  []manifest.Stub{stub, ref},
			})
			continue
		}

		merged := ref.Overlay(stub)
		if previous, dup := res.observed[stub.ID]; dup {
			res.issues = append(res.issues, Issue{
				ID:      stub.ID,
				Kind:    KindDuplicate,
				Message: "id listed more than once; earlier entry shadowed",
				Detail:  []manifest.Stub{merged, previous},
			})
		} else {
			res.order = append(res.order, stub.ID)
		}
		res.observed[stub.ID] = merged
	}
	return res
}

// Reference returns a copy of the reference index.
func (r *Result) Reference() map[string]manifest.Stub {
	return copyIndex(r.reference)
}

// Observed returns a copy of the merged, deduplicated index.
func (r *Result) Observed() map[string]manifest.Stub {
	return copyIndex(r.observed)
}

// Merged returns the merged stubs in first-seen order.
func (r *Result) Merged() []manifest.Stub {
	out := make([]manifest.Stub, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.observed[id])
	}
	return out
}

// Issues returns the discrepancies in the order they were found.
func (r *Result) Issues() []Issue {
	return append([]Issue(nil), r.issues...)
}

// Missing returns the sorted reference ids with no merged entry.
func (r *Result) Missing() []string {
	var out []string
	for id := range r.reference {
		if _, ok := r.observed[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Counts tallies issues by kind.
func (r *Result) Counts() map[string]int {
	out := make(map[string]int, 3)
	for _, issue := range r.issues {
		out[issue.Kind]++
	}
	return out
}

func copyIndex(in map[string]manifest.Stub) map[string]manifest.Stub {
	out := make(map[string]manifest.Stub, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func quote(s string) string {
	return "\"" + s + "\""
}
