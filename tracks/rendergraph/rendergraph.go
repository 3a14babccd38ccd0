// Package rendergraph shows executed render graphs: the graph itself, its nested scopes, its passes, and the
// lifetimes of the textures and buffers it allocated.
package rendergraph

import (
	"cmp"
	"fmt"
	stdcolor "image/color"
	"strings"

	"honnef.co/go/timingview/analysis"
	"honnef.co/go/timingview/color"
	"honnef.co/go/timingview/container"
	"honnef.co/go/timingview/timing"
	"honnef.co/go/timingview/tracks"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const Kind timing.TrackKind = "render_graph"

const trackOrder = -500

// layoutCacheSize bounds the number of graph layouts kept between rebuilds.
const layoutCacheSize = 1024

var (
	graphColor        = color.ARGB(0xFF5A6E9C)
	textureColor      = color.ARGB(0xFF3388CC)
	bufferColor       = color.ARGB(0xFFCC8833)
	culledColor       = color.ARGB(0xFF666666)
	asyncComputeColor = color.ARGB(0xFFAA55CC)
	computeColor      = color.ARGB(0xFF5599DD)
	copyColor         = color.ARGB(0xFF99AA44)
)

func passColor(p *analysis.RGPass) stdcolor.NRGBA {
	switch {
	case p.Flags&analysis.PassCulled != 0:
		return culledColor
	case p.Flags&analysis.PassAsyncCompute != 0:
		return asyncComputeColor
	case p.Flags&analysis.PassCompute != 0:
		return computeColor
	case p.Flags&analysis.PassCopy != 0:
		return copyColor
	default:
		return color.ForName(p.Name)
	}
}

var passFlagNames = []struct {
	flag analysis.PassFlags
	name string
}{
	{analysis.PassRaster, "Raster"},
	{analysis.PassCompute, "Compute"},
	{analysis.PassAsyncCompute, "AsyncCompute"},
	{analysis.PassCopy, "Copy"},
	{analysis.PassCulled, "Culled"},
}

func formatPassFlags(f analysis.PassFlags) string {
	var parts []string
	for _, fn := range passFlagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, " | ")
}

// graphLayout is the lane assignment of one graph. Orders are indices sorted by start time.
type graphLayout struct {
	scopes    []int
	passes    []int
	resources []int
	// resourceLanes[i] is the lane of resource i among resources of its kind.
	resourceLanes []int
	// lanes is the number of lanes per resource kind.
	lanes       [2]int
	scopeDepths int
	hasPasses   bool
}

func byStart[T any](items []T, start func(*T) float64) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(start(&items[a]), start(&items[b]))
	})
	return order
}

func computeLayout(g *analysis.RGGraph) *graphLayout {
	l := &graphLayout{
		scopes:      byStart(g.Scopes, func(s *analysis.RGScope) float64 { return s.Start }),
		passes:      byStart(g.Passes, func(p *analysis.RGPass) float64 { return p.Start }),
		resources:   byStart(g.Resources, func(r *analysis.RGResource) float64 { return r.Start }),
		scopeDepths: g.MaxScopeDepth(),
		hasPasses:   len(g.Passes) > 0,
	}

	l.resourceLanes = make([]int, len(g.Resources))
	for kind := range l.lanes {
		var ivs []timing.Interval
		var idx []int
		for i, r := range g.Resources {
			if int(r.Kind) == kind {
				ivs = append(ivs, timing.Interval{Start: r.Start, End: r.End})
				idx = append(idx, i)
			}
		}
		lanes, n := timing.AssignLanes(ivs)
		for j, i := range idx {
			l.resourceLanes[i] = lanes[j]
		}
		l.lanes[kind] = n
	}
	return l
}

// depths are the first depths of each section of a graph, given which sections are shown.
type depths struct {
	scope, pass, texture, buffer int
}

func (s *SharedState) depths(l *graphLayout) depths {
	var d depths
	next := 1
	d.scope = next
	if s.show[sectionScopes] {
		next += l.scopeDepths
	}
	d.pass = next
	if s.show[sectionPasses] && l.hasPasses {
		next++
	}
	d.texture = next
	if s.show[sectionTextures] {
		next += l.lanes[analysis.ResourceTexture]
	}
	d.buffer = next
	return d
}

type section uint8

const (
	sectionScopes section = iota
	sectionPasses
	sectionTextures
	sectionBuffers
	numSections
)

var sectionNames = [...]string{"Scopes", "Passes", "Textures", "Buffers"}

// SharedState creates the render graph track and caches graph layouts.
type SharedState struct {
	session *analysis.Session
	logger  zerolog.Logger

	track   *RenderGraphTrack
	serial  uint64
	layouts *lru.Cache
	show    [numSections]bool
}

var _ timing.Extender = (*SharedState)(nil)

func NewSharedState() *SharedState {
	layouts, err := lru.New(layoutCacheSize)
	if err != nil {
		panic(fmt.Sprintf("creating layout cache: %s", err))
	}
	return &SharedState{
		layouts: layouts,
		show:    [numSections]bool{true, true, true, true},
	}
}

func (s *SharedState) OnBeginSession(v *timing.View) {
	s.session = v.Analysis()
	s.logger = tracks.Logger(v, Kind)
	s.track = nil
	s.serial = 0
	s.layouts.Purge()
}

func (s *SharedState) OnEndSession(v *timing.View) {
	tracks.RemoveTracks(v, s.track)
	s.track = nil
	s.session = nil
	s.layouts.Purge()
}

func (s *SharedState) Tick(v *timing.View, session *analysis.Session) {
	s.session = session
	p, scope := session.Read()
	defer scope.Close()
	if p.RenderGraph == nil {
		return
	}
	if s.track == nil {
		s.track = newRenderGraphTrack(s, v.Session.NextTrackID())
		tracks.AddTrack(v, s.logger, s.track)
	}
	if serial := p.RenderGraph.Serial(); serial != s.serial {
		s.serial = serial
		s.layouts.Purge()
		s.track.SetDirty()
	}
}

func (s *SharedState) Track() (*RenderGraphTrack, bool) {
	return s.track, s.track != nil
}

func (s *SharedState) layout(index int, g *analysis.RGGraph) *graphLayout {
	if l, ok := s.layouts.Get(index); ok {
		return l.(*graphLayout)
	}
	l := computeLayout(g)
	s.layouts.Add(index, l)
	return l
}

func (s *SharedState) IsShown(sec section) bool { return s.show[sec] }

func (s *SharedState) SetShown(sec section, show bool) {
	if s.show[sec] == show {
		return
	}
	s.show[sec] = show
	if s.track != nil {
		s.track.SetDirty()
	}
}

// item is one drawable element of a graph.
type item struct {
	variant timing.EventKind
	graph   int
	index   int
	name    string
	start   float64
	end     float64
	depth   int
	color   stdcolor.NRGBA
}

// enumerate calls fn for every shown element of g. Elements of one depth are visited in order of start time.
func (s *SharedState) enumerate(index int, g *analysis.RGGraph, fn func(it *item) bool) bool {
	l := s.layout(index, g)
	d := s.depths(l)
	it := item{variant: timing.KindRenderGraph, graph: index, index: -1, name: g.Name, start: g.Start, end: g.End, color: graphColor}
	if !fn(&it) {
		return false
	}

	if s.show[sectionScopes] {
		for _, i := range l.scopes {
			sc := &g.Scopes[i]
			it = item{timing.KindRenderScope, index, i, sc.Name, sc.Start, sc.End, d.scope + sc.Depth, color.ForName(sc.Name)}
			if !fn(&it) {
				return false
			}
		}
	}
	if s.show[sectionPasses] {
		for _, i := range l.passes {
			p := &g.Passes[i]
			it = item{timing.KindRenderPass, index, i, p.Name, p.Start, p.End, d.pass, passColor(p)}
			if !fn(&it) {
				return false
			}
		}
	}
	for _, i := range l.resources {
		r := &g.Resources[i]
		var variant timing.EventKind
		var depth int
		var c stdcolor.NRGBA
		switch r.Kind {
		case analysis.ResourceBuffer:
			if !s.show[sectionBuffers] {
				continue
			}
			variant, depth, c = timing.KindRenderBuffer, d.buffer, bufferColor
		default:
			if !s.show[sectionTextures] {
				continue
			}
			variant, depth, c = timing.KindRenderTexture, d.texture, textureColor
		}
		it = item{variant, index, i, r.Name, r.Start, r.End, depth + l.resourceLanes[i], c}
		if !fn(&it) {
			return false
		}
	}
	return true
}

// RenderGraphTrack shows all render graphs of the session.
type RenderGraphTrack struct {
	timing.TimingEventsTrack

	shared *SharedState
}

func newRenderGraphTrack(s *SharedState, id uint64) *RenderGraphTrack {
	t := &RenderGraphTrack{shared: s}
	t.Init(timing.NewBaseTrack(id, "Render Graph", Kind), t)
	t.SetOrder(trackOrder)
	return t
}

func (t *RenderGraphTrack) BuildDrawState(b *timing.DrawStateBuilder, ctx *timing.UpdateContext) {
	p, release, ok := ctx.Providers()
	defer release()
	if !ok || p.RenderGraph == nil {
		return
	}
	vp := b.Viewport()
	p.RenderGraph.EnumerateGraphs(vp.StartTime(), vp.EndTime(), func(index int, g *analysis.RGGraph) bool {
		return t.shared.enumerate(index, g, func(it *item) bool {
			b.AddEvent(it.start, it.end, it.depth, it.name, uint32(it.variant), it.color)
			return true
		})
	})
}

func (t *RenderGraphTrack) search(s timing.EventSearch[*item]) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.RenderGraph == nil {
		return container.None[timing.TimingEvent]()
	}
	s.Procedure = func(ctx *timing.SearchContext[*item]) {
		p.RenderGraph.EnumerateGraphs(ctx.StartTime(), ctx.EndTime(), func(index int, g *analysis.RGGraph) bool {
			return t.shared.enumerate(index, g, func(it *item) bool {
				if it.end >= ctx.StartTime() && it.start <= ctx.EndTime() {
					// The search keeps the payload, so it must not alias the reused item.
					cp := *it
					ctx.Check(it.start, it.end, it.depth, &cp)
				}
				return ctx.ShouldContinue()
			})
		})
	}
	m, ok := s.Run()
	if !ok {
		return container.None[timing.TimingEvent]()
	}
	it := m.Payload
	return container.Some(timing.TimingEvent{
		Track:     t,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Depth:     m.Depth,
		Payload:   timing.RenderGraphPayload{Variant: it.variant, Graph: it.graph, Index: it.index, Name: it.name},
	})
}

func (t *RenderGraphTrack) SearchEvent(params timing.SearchParameters) container.Option[timing.TimingEvent] {
	return t.search(timing.EventSearch[*item]{Params: params})
}

// FindRenderGraphEvent finds an element of a graph. index is ignored for the graph itself.
func (t *RenderGraphTrack) FindRenderGraphEvent(variant timing.EventKind, graph, index int) container.Option[timing.TimingEvent] {
	if t.shared.session == nil {
		return container.None[timing.TimingEvent]()
	}
	p, scope := t.shared.session.Read()
	if p.RenderGraph == nil {
		scope.Close()
		return container.None[timing.TimingEvent]()
	}
	g, ok := p.RenderGraph.Graph(graph)
	var start, end float64
	if ok {
		start, end, ok = bounds(g, variant, index)
	}
	scope.Close()
	if !ok {
		return container.None[timing.TimingEvent]()
	}
	return t.search(timing.EventSearch[*item]{
		Params: timing.SearchParameters{
			StartTime: start,
			EndTime:   end,
			Flags:     timing.SearchStopAtFirstMatch,
		},
		PayloadFilter: func(_, _ float64, _ int, it *item) bool {
			return it.variant == variant && it.graph == graph && (variant == timing.KindRenderGraph || it.index == index)
		},
	})
}

func bounds(g *analysis.RGGraph, variant timing.EventKind, index int) (start, end float64, ok bool) {
	switch variant {
	case timing.KindRenderGraph:
		return g.Start, g.End, true
	case timing.KindRenderScope:
		if index >= 0 && index < len(g.Scopes) {
			return g.Scopes[index].Start, g.Scopes[index].End, true
		}
	case timing.KindRenderPass:
		if index >= 0 && index < len(g.Passes) {
			return g.Passes[index].Start, g.Passes[index].End, true
		}
	case timing.KindRenderTexture, timing.KindRenderBuffer:
		if index >= 0 && index < len(g.Resources) {
			return g.Resources[index].Start, g.Resources[index].End, true
		}
	}
	return 0, 0, false
}

func (t *RenderGraphTrack) InitTooltip(tt *timing.Tooltip, ev timing.TimingEvent) {
	rp, ok := ev.Payload.(timing.RenderGraphPayload)
	if !ok {
		return
	}
	tt.SetTitle(rp.Name)
	tt.Add("Type", rp.Variant.String())
	tt.AddEventTimes(ev.StartTime, ev.EndTime)

	if t.shared.session == nil {
		return
	}
	p, scope := t.shared.session.Read()
	defer scope.Close()
	if p.RenderGraph == nil {
		return
	}
	g, ok := p.RenderGraph.Graph(rp.Graph)
	if !ok {
		return
	}
	switch rp.Variant {
	case timing.KindRenderGraph:
		tt.AddCount("Scopes", int64(len(g.Scopes)))
		tt.AddCount("Passes", int64(len(g.Passes)))
		tt.AddCount("Resources", int64(len(g.Resources)))
	case timing.KindRenderScope:
		if rp.Index < len(g.Scopes) {
			tt.AddCount("Scope Depth", int64(g.Scopes[rp.Index].Depth))
		}
	case timing.KindRenderPass:
		if rp.Index < len(g.Passes) {
			tt.Add("Flags", formatPassFlags(g.Passes[rp.Index].Flags))
		}
	case timing.KindRenderTexture, timing.KindRenderBuffer:
		if rp.Index < len(g.Resources) {
			tt.AddBytes("Size", int64(g.Resources[rp.Index].SizeBytes))
		}
	}
	tt.Add("Graph", g.Name)
}

func (t *RenderGraphTrack) BuildContextMenu(m *timing.Menu) {
	s := t.shared
	m.BeginSection("Render Graph")
	for sec := range numSections {
		m.AddItem(timing.MenuItem{
			Label:     "Show " + sectionNames[sec],
			IsChecked: func() bool { return s.IsShown(sec) },
			Execute:   func() { s.SetShown(sec, !s.show[sec]) },
		})
	}
}
