package analysis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang/snappy"

	"honnef.co/go/timingview/metrics"
)

// snappyMagic starts every snappy framed stream.
var snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")

// File is the on-disk session format.
type File struct {
	Name         string         `json:"name"`
	Duration     float64        `json:"duration,omitempty"`
	Frames       *fileFrames    `json:"frames,omitempty"`
	Loading      *fileLoading   `json:"loading,omitempty"`
	Files        []fileIO       `json:"files,omitempty"`
	RenderGraphs []RGGraph      `json:"render_graphs,omitempty"`
	Memory       *fileMemory    `json:"memory,omitempty"`
	Objects      []fileGameplay `json:"objects,omitempty"`
}

type fileFrames struct {
	Game      [][2]float64 `json:"game,omitempty"`
	Rendering [][2]float64 `json:"rendering,omitempty"`
}

type fileLoadEvent struct {
	Start        float64  `json:"start"`
	End          *float64 `json:"end"`
	Depth        int      `json:"depth"`
	Package      *int32   `json:"package"`
	Export       *int32   `json:"export"`
	PackageEvent string   `json:"package_event"`
	ExportEvent  string   `json:"export_event"`
}

type fileLoading struct {
	Packages []PackageInfo   `json:"packages"`
	Exports  []ExportInfo    `json:"exports"`
	Main     []fileLoadEvent `json:"main"`
	Async    []fileLoadEvent `json:"async"`
}

type fileIOActivity struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Type   string  `json:"type"`
	Failed bool    `json:"failed,omitempty"`
	Offset uint64  `json:"offset,omitempty"`
	Size   uint64  `json:"size,omitempty"`
}

type fileIO struct {
	Path       string           `json:"path"`
	Activities []fileIOActivity `json:"activities"`
}

type fileMemorySample struct {
	Tracker int     `json:"tracker"`
	Tag     int64   `json:"tag"`
	Time    float64 `json:"time"`
	Value   int64   `json:"value"`
}

type fileMemory struct {
	Trackers []string           `json:"trackers"`
	Tags     []MemoryTag        `json:"tags"`
	Samples  []fileMemorySample `json:"samples"`
}

type fileGameplay struct {
	GameplayObject
	Events []ObjectEvent `json:"events"`
}

// LoadSession decodes a session file. Input compressed as a snappy framed stream is decompressed transparently.
func LoadSession(r io.Reader) (*Session, error) {
	t := time.Now()
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(snappyMagic)); err == nil && bytes.Equal(head, snappyMagic) {
		r = snappy.NewReader(br)
	} else {
		r = br
	}

	var f File
	dec := json.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	p, err := f.Providers()
	if err != nil {
		return nil, err
	}
	metrics.SessionLoadDurationUsec.Observe(float64(time.Since(t).Microseconds()))
	return NewSession(f.Name, p), nil
}

// SaveSession encodes f, optionally snappy compressed.
func SaveSession(w io.Writer, f *File, compress bool) error {
	if compress {
		sw := snappy.NewBufferedWriter(w)
		if err := json.NewEncoder(sw).Encode(f); err != nil {
			return fmt.Errorf("encoding session: %w", err)
		}
		return sw.Close()
	}
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return nil
}

var errInvalid = errors.New("invalid session")

// Providers builds in-memory providers from the decoded file.
func (f *File) Providers() (p *Providers, err error) {
	// The stores panic on out-of-order input; report that as a decoding error instead.
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %v", errInvalid, r)
		}
	}()

	p = &Providers{DurationSeconds: f.Duration}
	if f.Frames != nil {
		s := &FrameStore{}
		for t, frames := range [...][][2]float64{f.Frames.Game, f.Frames.Rendering} {
			for _, fr := range frames {
				s.AddFrame(FrameType(t), fr[0], fr[1])
				p.ExtendDuration(fr[1])
			}
		}
		p.Frames = s
	}

	if f.Loading != nil {
		s := NewLoadTimeStore()
		for _, pkg := range f.Loading.Packages {
			s.AddPackage(pkg)
		}
		for _, exp := range f.Loading.Exports {
			s.AddExport(exp)
		}
		for _, tl := range []struct {
			events []fileLoadEvent
			dst    *Timeline[LoadEvent]
		}{{f.Loading.Main, s.MainThread}, {f.Loading.Async, s.AsyncThread}} {
			for i, ev := range tl.events {
				le := LoadEvent{Package: NoID, Export: NoID, PackageEventType: PackageEventNone, ExportEventType: ExportEventNone}
				if ev.Package != nil {
					le.Package = *ev.Package
				}
				if ev.Export != nil {
					le.Export = *ev.Export
				}
				if ev.PackageEvent != "" {
					typ, ok := ParsePackageEventType(ev.PackageEvent)
					if !ok {
						return nil, fmt.Errorf("%w: loading event %d: unknown package event %q", errInvalid, i, ev.PackageEvent)
					}
					le.PackageEventType = typ
				}
				if ev.ExportEvent != "" {
					typ, ok := ParseExportEventType(ev.ExportEvent)
					if !ok {
						return nil, fmt.Errorf("%w: loading event %d: unknown export event %q", errInvalid, i, ev.ExportEvent)
					}
					le.ExportEventType = typ
				}
				if ev.End == nil {
					tl.dst.Begin(ev.Start, ev.Depth, le)
				} else {
					tl.dst.Append(ev.Start, *ev.End, ev.Depth, le)
					p.ExtendDuration(*ev.End)
				}
			}
		}
		p.LoadTime = s
	}

	if len(f.Files) > 0 {
		s := &FileActivityStore{}
		for _, file := range f.Files {
			id := s.AddFile(file.Path)
			for _, act := range file.Activities {
				typ, ok := ParseFileActivityType(act.Type)
				if !ok {
					return nil, fmt.Errorf("%w: %s: unknown activity %q", errInvalid, file.Path, act.Type)
				}
				s.AddActivity(id, act.Start, act.End, FileActivity{Type: typ, Failed: act.Failed, Offset: act.Offset, Size: act.Size})
				if !math.IsInf(act.End, 1) {
					p.ExtendDuration(act.End)
				}
			}
		}
		p.FileActivity = s
	}

	if len(f.RenderGraphs) > 0 {
		s := &RenderGraphStore{}
		for _, g := range f.RenderGraphs {
			s.AddGraph(g)
			p.ExtendDuration(g.End)
		}
		p.RenderGraph = s
	}

	if f.Memory != nil {
		s := NewMemoryStore()
		for _, name := range f.Memory.Trackers {
			s.AddTracker(name)
		}
		for _, tag := range f.Memory.Tags {
			s.AddTag(tag)
		}
		for i, sample := range f.Memory.Samples {
			if !s.AddSample(sample.Tracker, sample.Tag, MemorySample{Time: sample.Time, Value: sample.Value}) {
				return nil, fmt.Errorf("%w: memory sample %d references unknown tracker %d or tag %d", errInvalid, i, sample.Tracker, sample.Tag)
			}
			p.ExtendDuration(sample.Time)
		}
		p.Memory = s
	}

	if len(f.Objects) > 0 {
		s := NewGameplayStore()
		for _, obj := range f.Objects {
			s.AddObject(obj.GameplayObject)
			for _, ev := range obj.Events {
				s.AddEvent(obj.ID, ev)
				p.ExtendDuration(ev.Time)
			}
		}
		p.Gameplay = s
	}

	return p, nil
}
