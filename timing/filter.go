package timing

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/text/cases"
)

// Filter selects the events shown in filtered draw states.
type Filter interface {
	// FilterTrack reports whether the filter applies to track at all. Tracks it doesn't apply to are drawn
	// unfiltered.
	FilterTrack(track Track) bool
	FilterEvent(start, end float64, depth int, name string, typeID uint32) bool
	// ChangeNumber changes whenever the filter's criteria change in place.
	ChangeNumber() uint32
}

// NameFilter matches events whose name contains a substring, ignoring case.
type NameFilter struct {
	needle string
}

func NewNameFilter(s string) *NameFilter {
	return &NameFilter{needle: cases.Fold().String(s)}
}

func (f *NameFilter) FilterTrack(Track) bool { return true }
func (f *NameFilter) ChangeNumber() uint32   { return 0 }

func (f *NameFilter) FilterEvent(_, _ float64, _ int, name string, _ uint32) bool {
	return strings.Contains(cases.Fold().String(name), f.needle)
}

// TypeFilter matches events by their type ID. The set of types may be changed while the filter is active.
type TypeFilter struct {
	types  *roaring.Bitmap
	change uint32
}

func NewTypeFilter(types ...uint32) *TypeFilter {
	return &TypeFilter{types: roaring.BitmapOf(types...)}
}

func (f *TypeFilter) Add(typeID uint32) {
	if f.types.CheckedAdd(typeID) {
		f.change++
	}
}

func (f *TypeFilter) Remove(typeID uint32) {
	if f.types.CheckedRemove(typeID) {
		f.change++
	}
}

func (f *TypeFilter) Has(typeID uint32) bool { return f.types.Contains(typeID) }
func (f *TypeFilter) Len() int               { return int(f.types.GetCardinality()) }

func (f *TypeFilter) FilterTrack(Track) bool { return true }
func (f *TypeFilter) ChangeNumber() uint32   { return f.change }

func (f *TypeFilter) FilterEvent(_, _ float64, _ int, _ string, typeID uint32) bool {
	return f.types.Contains(typeID)
}

// DurationFilter matches events at least as long as Min seconds.
type DurationFilter struct {
	min    float64
	change uint32
}

func NewDurationFilter(minDuration float64) *DurationFilter {
	return &DurationFilter{min: minDuration}
}

func (f *DurationFilter) SetMin(d float64) {
	if d != f.min {
		f.min = d
		f.change++
	}
}

func (f *DurationFilter) FilterTrack(Track) bool { return true }
func (f *DurationFilter) ChangeNumber() uint32   { return f.change }

func (f *DurationFilter) FilterEvent(start, end float64, _ int, _ string, _ uint32) bool {
	return end-start >= f.min
}

// TrackFilter restricts another filter to tracks of some kinds.
type TrackFilter struct {
	Filter
	Kinds []TrackKind
}

func (f *TrackFilter) FilterTrack(track Track) bool {
	k := track.Kind()
	for _, kind := range f.Kinds {
		if kind == k {
			return f.Filter.FilterTrack(track)
		}
	}
	return false
}

// FilterService holds the filter active in a session.
type FilterService struct {
	active Filter
	serial uint64
}

// Active returns the active filter, or nil.
func (s *FilterService) Active() Filter { return s.active }

// Set replaces the active filter. A nil filter clears it.
func (s *FilterService) Set(f Filter) {
	if f == s.active {
		return
	}
	s.active = f
	s.serial++
}

func (s *FilterService) Clear() { s.Set(nil) }

// Serial changes every time the active filter is replaced.
func (s *FilterService) Serial() uint64 { return s.serial }

// FilterFor returns the active filter if it applies to track.
func (s *FilterService) FilterFor(track Track) Filter {
	if s == nil || s.active == nil || !s.active.FilterTrack(track) {
		return nil
	}
	return s.active
}
