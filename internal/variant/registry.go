package variant

import (
	"sort"
)

// Request maps a normalized image path to the set of targets requested per
// axis. Merging requests is a set union, so it is commutative and idempotent.
type Request map[string]map[Axis]map[int]struct{}

// Add records a single variant for path.
func (r Request) Add(p string, v Variant) {
	axes, ok := r[p]
	if !ok {
		axes = make(map[Axis]map[int]struct{})
		r[p] = axes
	}
	targets, ok := axes[v.Axis]
	if !ok {
		targets = make(map[int]struct{})
		axes[v.Axis] = targets
	}
	if v.IsResize() {
		targets[v.Target] = struct{}{}
	}
}

// Merge unions other into r.
func (r Request) Merge(other Request) {
	for p, axes := range other {
		for axis, targets := range axes {
			if len(targets) == 0 {
				r.Add(p, Variant{Axis: axis})
				continue
			}
			for target := range targets {
				r.Add(p, Variant{Axis: axis, Target: target})
			}
		}
	}
}

// Clone returns a deep copy so cached fragments are never aliased by a
// registry that later grows.
func (r Request) Clone() Request {
	out := make(Request, len(r))
	out.Merge(r)
	return out
}

// Paths returns the image paths in r, sorted.
func (r Request) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Variants lists every variant requested for p in a stable order: the
// original first, then width targets, then height targets, ascending.
func (r Request) Variants(p string) []Variant {
	axes, ok := r[p]
	if !ok {
		return nil
	}
	var out []Variant
	if _, ok := axes[AxisNone]; ok {
		out = append(out, Original)
	}
	for _, axis := range []Axis{AxisWidth, AxisHeight} {
		targets := make([]int, 0, len(axes[axis]))
		for target := range axes[axis] {
			targets = append(targets, target)
		}
		sort.Ints(targets)
		for _, target := range targets {
			out = append(out, Variant{Axis: axis, Target: target})
		}
	}
	return out
}

// Registry accumulates the variant requests of every text asset seen in one
// pipeline run. It is rebuilt for each run and only touched from the run's
// control goroutine.
type Registry struct {
	req Request
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{req: make(Request)}
}

// Merge records that path was referenced with v.
func (g *Registry) Merge(p string, v Variant) {
	g.req.Add(p, v)
}

// MergeRequest unions a fragment produced by scanning one text asset.
func (g *Registry) MergeRequest(r Request) {
	g.req.Merge(r)
}

// Lookup returns the sorted targets requested per axis for path. The
// original variant appears as AxisNone with an empty slice.
func (g *Registry) Lookup(p string) (map[Axis][]int, bool) {
	axes, ok := g.req[p]
	if !ok {
		return nil, false
	}
	out := make(map[Axis][]int, len(axes))
	for axis, targets := range axes {
		list := make([]int, 0, len(targets))
		for target := range targets {
			list = append(list, target)
		}
		sort.Ints(list)
		out[axis] = list
	}
	return out, true
}

// Variants lists the variants requested for path, see Request.Variants.
func (g *Registry) Variants(p string) []Variant {
	return g.req.Variants(p)
}

// Paths returns every image path with at least one request.
func (g *Registry) Paths() []string {
	return g.req.Paths()
}

// Len reports the number of distinct image paths.
func (g *Registry) Len() int {
	return len(g.req)
}
