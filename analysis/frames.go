package analysis

import (
	"fmt"

	"honnef.co/go/timingview/mem"
)

type FrameType uint8

const (
	FrameGame FrameType = iota
	FrameRendering
	NumFrameTypes
)

func (t FrameType) String() string {
	switch t {
	case FrameGame:
		return "Game"
	case FrameRendering:
		return "Rendering"
	default:
		return fmt.Sprintf("FrameType(%d)", t)
	}
}

type Frame struct {
	Index     uint64
	StartTime float64
	EndTime   float64
}

func (f Frame) Duration() float64 { return f.EndTime - f.StartTime }

type FrameProvider interface {
	NumFrames(t FrameType) int
	// EnumerateFrames calls fn for every frame of type t intersecting [start, end], in order.
	EnumerateFrames(t FrameType, start, end float64, fn func(f *Frame) bool)
	Frame(t FrameType, index uint64) (Frame, bool)
	Serial() uint64
}

// FrameStore is an in-memory FrameProvider. Frames of one type are contiguous and appended in order.
type FrameStore struct {
	frames [NumFrameTypes]mem.Arena[Frame]
	serial uint64
}

var _ FrameProvider = (*FrameStore)(nil)

// AddFrame appends a frame and returns its index.
func (s *FrameStore) AddFrame(t FrameType, start, end float64) uint64 {
	if t >= NumFrameTypes {
		panic(fmt.Sprintf("invalid frame type %d", t))
	}
	a := &s.frames[t]
	if last := a.Last(); last != nil && start < last.StartTime {
		panic(fmt.Sprintf("%s frame at %v appended after frame at %v", t, start, last.StartTime))
	}
	idx := uint64(a.Len())
	a.Append(Frame{Index: idx, StartTime: start, EndTime: end})
	s.serial++
	return idx
}

func (s *FrameStore) NumFrames(t FrameType) int {
	if t >= NumFrameTypes {
		return 0
	}
	return s.frames[t].Len()
}

func (s *FrameStore) EnumerateFrames(t FrameType, start, end float64, fn func(f *Frame) bool) {
	if t >= NumFrameTypes || end < start {
		return
	}
	a := &s.frames[t]
	for i := a.Search(func(f *Frame) bool { return f.EndTime >= start }); i < a.Len(); i++ {
		f := a.Ptr(i)
		if f.StartTime > end {
			return
		}
		if !fn(f) {
			return
		}
	}
}

func (s *FrameStore) Frame(t FrameType, index uint64) (Frame, bool) {
	if t >= NumFrameTypes || index >= uint64(s.frames[t].Len()) {
		return Frame{}, false
	}
	return s.frames[t].Get(int(index)), true
}

func (s *FrameStore) Serial() uint64 { return s.serial }
