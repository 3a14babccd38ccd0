package analysis

import "honnef.co/go/timingview/mem"

type ResourceKind uint8

const (
	ResourceTexture ResourceKind = iota
	ResourceBuffer
)

func (k ResourceKind) String() string {
	if k == ResourceBuffer {
		return "Buffer"
	}
	return "Texture"
}

type PassFlags uint32

const (
	PassRaster PassFlags = 1 << iota
	PassCompute
	PassAsyncCompute
	PassCopy
	PassCulled
)

type RGScope struct {
	Name  string  `json:"name"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	// Depth is the nesting level among scopes, starting at 0.
	Depth int `json:"depth"`
}

type RGPass struct {
	Name  string    `json:"name"`
	Start float64   `json:"start"`
	End   float64   `json:"end"`
	Flags PassFlags `json:"flags,omitempty"`
}

type RGResource struct {
	Name      string       `json:"name"`
	Kind      ResourceKind `json:"kind"`
	Start     float64      `json:"start"`
	End       float64      `json:"end"`
	SizeBytes uint64       `json:"size_bytes"`
}

// RGGraph is one executed render graph with everything it contains.
type RGGraph struct {
	Name      string       `json:"name"`
	Start     float64      `json:"start"`
	End       float64      `json:"end"`
	Scopes    []RGScope    `json:"scopes,omitempty"`
	Passes    []RGPass     `json:"passes,omitempty"`
	Resources []RGResource `json:"resources,omitempty"`
}

// MaxScopeDepth returns the number of scope nesting levels.
func (g *RGGraph) MaxScopeDepth() int {
	n := 0
	for _, s := range g.Scopes {
		n = max(n, s.Depth+1)
	}
	return n
}

type RenderGraphProvider interface {
	// EnumerateGraphs calls fn for every graph intersecting [start, end], in order.
	EnumerateGraphs(start, end float64, fn func(index int, g *RGGraph) bool)
	Graph(index int) (*RGGraph, bool)
	NumGraphs() int
	Serial() uint64
}

type RenderGraphStore struct {
	graphs mem.Arena[RGGraph]
	serial uint64
}

var _ RenderGraphProvider = (*RenderGraphStore)(nil)

// AddGraph appends g. Graphs must be added in order of start time and must not overlap.
func (s *RenderGraphStore) AddGraph(g RGGraph) int {
	if last := s.graphs.Last(); last != nil && g.Start < last.End {
		panic("render graphs must not overlap")
	}
	s.serial++
	return s.graphs.Append(g)
}

func (s *RenderGraphStore) EnumerateGraphs(start, end float64, fn func(index int, g *RGGraph) bool) {
	if end < start {
		return
	}
	for i := s.graphs.Search(func(g *RGGraph) bool { return g.End >= start }); i < s.graphs.Len(); i++ {
		g := s.graphs.Ptr(i)
		if g.Start > end {
			return
		}
		if !fn(i, g) {
			return
		}
	}
}

func (s *RenderGraphStore) Graph(index int) (*RGGraph, bool) {
	if index < 0 || index >= s.graphs.Len() {
		return nil, false
	}
	return s.graphs.Ptr(index), true
}

func (s *RenderGraphStore) NumGraphs() int { return s.graphs.Len() }
func (s *RenderGraphStore) Serial() uint64 { return s.serial }
