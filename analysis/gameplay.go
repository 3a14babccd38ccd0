package analysis

import (
	"sort"

	"honnef.co/go/timingview/mem"
)

type GameplayObject struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	ClassName string `json:"class"`
}

// ObjectEvent is an instant event recorded for a gameplay object, such as a montage notification.
type ObjectEvent struct {
	Time float64 `json:"time"`
	Name string  `json:"name"`
}

type GameplayProvider interface {
	Objects() []GameplayObject
	Object(id uint64) (GameplayObject, bool)
	// ObjectSerial changes whenever objects or events are added.
	ObjectSerial() uint64
	// EnumerateObjectEvents calls fn for events of object id in [start, end], in time order. It reports false
	// if the object is unknown.
	EnumerateObjectEvents(id uint64, start, end float64, fn func(ev *ObjectEvent) bool) bool
}

type GameplayStore struct {
	objects []GameplayObject
	index   map[uint64]int
	events  []*mem.Arena[ObjectEvent]
	serial  uint64
}

var _ GameplayProvider = (*GameplayStore)(nil)

func NewGameplayStore() *GameplayStore {
	return &GameplayStore{index: map[uint64]int{}}
}

func (s *GameplayStore) AddObject(obj GameplayObject) {
	if _, ok := s.index[obj.ID]; ok {
		return
	}
	s.index[obj.ID] = len(s.objects)
	s.objects = append(s.objects, obj)
	s.events = append(s.events, new(mem.Arena[ObjectEvent]))
	s.serial++
}

// AddEvent appends an event for object id. Events must be added in time order. It reports false for unknown
// objects.
func (s *GameplayStore) AddEvent(id uint64, ev ObjectEvent) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	a := s.events[i]
	if last := a.Last(); last != nil && ev.Time < last.Time {
		panic("object events must be added in time order")
	}
	a.Append(ev)
	s.serial++
	return true
}

func (s *GameplayStore) Objects() []GameplayObject {
	out := append([]GameplayObject(nil), s.objects...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *GameplayStore) Object(id uint64) (GameplayObject, bool) {
	i, ok := s.index[id]
	if !ok {
		return GameplayObject{}, false
	}
	return s.objects[i], true
}

func (s *GameplayStore) ObjectSerial() uint64 { return s.serial }

func (s *GameplayStore) EnumerateObjectEvents(id uint64, start, end float64, fn func(ev *ObjectEvent) bool) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	a := s.events[i]
	for j := a.Search(func(ev *ObjectEvent) bool { return ev.Time >= start }); j < a.Len(); j++ {
		ev := a.Ptr(j)
		if ev.Time > end || !fn(ev) {
			break
		}
	}
	return true
}
