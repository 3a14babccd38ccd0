package timing

import (
	"fmt"

	"honnef.co/go/timingview/analysis"
)

// EventKind identifies the payload variant of a timing event.
type EventKind uint8

const (
	KindNone EventKind = iota
	KindFrame
	KindLoading
	KindFileActivity
	KindRenderGraph
	KindRenderScope
	KindRenderPass
	KindRenderTexture
	KindRenderBuffer
	KindMemory
	KindObjectEvent
)

func (k EventKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFrame:
		return "frame"
	case KindLoading:
		return "loading"
	case KindFileActivity:
		return "file activity"
	case KindRenderGraph:
		return "render graph"
	case KindRenderScope:
		return "render scope"
	case KindRenderPass:
		return "render pass"
	case KindRenderTexture:
		return "texture"
	case KindRenderBuffer:
		return "buffer"
	case KindMemory:
		return "memory"
	case KindObjectEvent:
		return "object event"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// EventPayload is the closed set of payloads a timing event can carry. Use a type switch to recover the variant.
type EventPayload interface {
	Kind() EventKind
	isEventPayload()
}

type FramePayload struct {
	Type  analysis.FrameType
	Index uint64
}

type LoadingPayload struct {
	Event analysis.LoadEvent
	// Name is the label the event was drawn with.
	Name string
}

// FileActivityType extends analysis.FileActivityType with the virtual activities synthesized for display.
type FileActivityType uint8

const (
	FileOpen FileActivityType = iota
	FileClose
	FileRead
	FileWrite
	// FileIdle covers a gap of more than a second between a file's last activity and its close.
	FileIdle
	// FileNotClosed covers the time after the last activity of a file that was never closed.
	FileNotClosed
)

var fileActivityTypeNames = [...]string{"Open", "Close", "Read", "Write", "Idle", "NotClosed"}

func (t FileActivityType) String() string {
	if int(t) < len(fileActivityTypeNames) {
		return fileActivityTypeNames[t]
	}
	return fmt.Sprintf("FileActivityType(%d)", t)
}

// IsVirtual reports whether the activity was synthesized rather than recorded.
func (t FileActivityType) IsVirtual() bool { return t >= FileIdle }

type FileActivityPayload struct {
	FileID uint32
	Path   string
	Type   FileActivityType
	Failed bool
	Offset uint64
	Size   uint64
}

// RenderGraphPayload refers to a graph, or to an item inside of it by index.
type RenderGraphPayload struct {
	Variant EventKind // one of the KindRender* kinds
	Graph   int
	Index   int
	Name    string
}

type MemoryPayload struct {
	Tracker int
	Tag     int64
	Value   int64
}

type ObjectEventPayload struct {
	ObjectID uint64
	Name     string
}

func (FramePayload) Kind() EventKind         { return KindFrame }
func (LoadingPayload) Kind() EventKind       { return KindLoading }
func (FileActivityPayload) Kind() EventKind  { return KindFileActivity }
func (p RenderGraphPayload) Kind() EventKind { return p.Variant }
func (MemoryPayload) Kind() EventKind        { return KindMemory }
func (ObjectEventPayload) Kind() EventKind   { return KindObjectEvent }

func (FramePayload) isEventPayload()        {}
func (LoadingPayload) isEventPayload()      {}
func (FileActivityPayload) isEventPayload() {}
func (RenderGraphPayload) isEventPayload()  {}
func (MemoryPayload) isEventPayload()       {}
func (ObjectEventPayload) isEventPayload()  {}

// TimingEvent is an event located on a track, as produced by hit testing and navigation.
type TimingEvent struct {
	Track     Track
	StartTime float64
	EndTime   float64
	Depth     int
	Payload   EventPayload
}

func (ev TimingEvent) Duration() float64 { return ev.EndTime - ev.StartTime }

// Kind returns the payload's kind, or KindNone.
func (ev TimingEvent) Kind() EventKind {
	if ev.Payload == nil {
		return KindNone
	}
	return ev.Payload.Kind()
}

// Equal reports whether ev and other denote the same event.
func (ev TimingEvent) Equal(other TimingEvent) bool {
	return ev.Track == other.Track &&
		ev.StartTime == other.StartTime &&
		ev.EndTime == other.EndTime &&
		ev.Depth == other.Depth
}
