package analysis

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestFrameStore(t *testing.T) {
	var s FrameStore
	s.AddFrame(FrameGame, 0, 0.0166)
	s.AddFrame(FrameGame, 0.0166, 0.0332)
	s.AddFrame(FrameRendering, 0.005, 0.02)

	var got []uint64
	s.EnumerateFrames(FrameGame, 0.02, 0.05, func(f *Frame) bool {
		got = append(got, f.Index)
		return true
	})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("frames in [0.02, 0.05] = %v, want [1]", got)
	}
	if _, ok := s.Frame(FrameGame, 5); ok {
		t.Errorf("Frame returned a frame for a stale index")
	}
	if f, ok := s.Frame(FrameRendering, 0); !ok || f.StartTime != 0.005 {
		t.Errorf("Frame(Rendering, 0) = %v, %t", f, ok)
	}
	if s.NumFrames(NumFrameTypes) != 0 {
		t.Errorf("invalid frame type reports frames")
	}
}

func TestMemoryStoreSamples(t *testing.T) {
	s := NewMemoryStore()
	tr := s.AddTracker("Default")
	s.AddTag(MemoryTag{ID: 7, Name: "Textures", Parent: NoTag})
	for i, v := range []int64{10, 20, 30, 40} {
		s.AddSample(tr, 7, MemorySample{Time: float64(i), Value: v})
	}
	var vals []int64
	var lastDur float64
	ok := s.EnumerateSamples(tr, 7, 1.5, 2.5, func(sm MemorySample, d float64) bool {
		vals = append(vals, sm.Value)
		lastDur = d
		return true
	})
	if !ok {
		t.Fatal("EnumerateSamples reported unknown tag")
	}
	if len(vals) != 2 || vals[0] != 20 || vals[1] != 30 {
		t.Errorf("values = %v, want [20 30]", vals)
	}
	if lastDur != 1 {
		t.Errorf("duration = %v, want 1", lastDur)
	}
	if s.EnumerateSamples(tr, 99, 0, 1, func(MemorySample, float64) bool { return true }) {
		t.Errorf("unknown tag reported as known")
	}
	s.EnumerateSamples(tr, 7, 10, 20, func(sm MemorySample, d float64) bool {
		if sm.Value != 40 || !math.IsInf(d, 1) {
			t.Errorf("last sample = %v, %v, want 40 lasting forever", sm.Value, d)
		}
		return true
	})
}

func TestGameplayStore(t *testing.T) {
	s := NewGameplayStore()
	s.AddObject(GameplayObject{ID: 2, Name: "Hero"})
	s.AddObject(GameplayObject{ID: 1, Name: "Door"})
	s.AddEvent(2, ObjectEvent{Time: 1, Name: "Jump"})
	s.AddEvent(2, ObjectEvent{Time: 3, Name: "Land"})
	if objs := s.Objects(); objs[0].ID != 1 {
		t.Errorf("Objects() not sorted by id: %v", objs)
	}
	var names []string
	s.EnumerateObjectEvents(2, 0, 2, func(ev *ObjectEvent) bool {
		names = append(names, ev.Name)
		return true
	})
	if len(names) != 1 || names[0] != "Jump" {
		t.Errorf("events = %v, want [Jump]", names)
	}
	if s.EnumerateObjectEvents(42, 0, 10, func(*ObjectEvent) bool { return true }) {
		t.Errorf("unknown object reported as known")
	}
}

const sessionJSON = `{
	"name": "test",
	"frames": {"game": [[0, 0.0166], [0.0166, 0.0332]]},
	"loading": {
		"packages": [{"name": "/Game/Map", "size": 100}],
		"exports": [{"class": "StaticMesh", "package": 0}],
		"main": [{"start": 0, "end": 1, "depth": 0, "package": 0, "package_event": "CreateLinker"}],
		"async": [{"start": 0.5, "depth": 0, "export": 0, "export_event": "Serialize"}]
	},
	"files": [{"path": "a.pak", "activities": [{"start": 0, "end": 0.1, "type": "Open"}, {"start": 2, "end": 2.5, "type": "Read"}]}],
	"render_graphs": [{"name": "Frame", "start": 0, "end": 0.01}],
	"memory": {"trackers": ["Default"], "tags": [{"id": 1, "name": "Total", "parent": -1}], "samples": [{"tracker": 0, "tag": 1, "time": 3, "value": 5}]},
	"objects": [{"id": 9, "name": "Hero", "events": [{"time": 1, "name": "Jump"}]}]
}`

func TestLoadSession(t *testing.T) {
	s, err := LoadSession(strings.NewReader(sessionJSON))
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	p, scope := s.Read()
	defer scope.Close()
	if p.Frames.NumFrames(FrameGame) != 2 {
		t.Errorf("game frames = %d, want 2", p.Frames.NumFrames(FrameGame))
	}
	if p.DurationSeconds != 3 {
		t.Errorf("duration = %v, want 3", p.DurationSeconds)
	}
	if p.LoadTime.AsyncThreadTimeline().NumEvents() != 1 {
		t.Errorf("async loading events = %d, want 1", p.LoadTime.AsyncThreadTimeline().NumEvents())
	}
	if pkg, ok := p.LoadTime.Package(0); !ok || pkg.Name != "/Game/Map" {
		t.Errorf("package 0 = %v, %t", pkg, ok)
	}
	if p.RenderGraph.NumGraphs() != 1 || p.Memory == nil || p.Gameplay == nil || p.FileActivity == nil {
		t.Errorf("providers missing: %+v", p)
	}
	if s.OpenReadScopes() != 1 {
		t.Errorf("open read scopes = %d, want 1", s.OpenReadScopes())
	}
}

func TestLoadSessionSnappy(t *testing.T) {
	var f File
	f.Name = "compressed"
	f.Frames = &fileFrames{Game: [][2]float64{{0, 1}}}
	var buf bytes.Buffer
	if err := SaveSession(&buf, &f, true); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), snappyMagic) {
		t.Fatalf("compressed output lacks snappy stream header")
	}
	s, err := LoadSession(&buf)
	if err != nil {
		t.Fatalf("LoadSession(snappy): %v", err)
	}
	if s.Name != "compressed" || s.Duration() != 1 {
		t.Errorf("session = %q, duration %v", s.Name, s.Duration())
	}
}

func TestLoadSessionInvalid(t *testing.T) {
	for name, in := range map[string]string{
		"unordered": `{"frames": {"game": [[1, 2], [0, 1]]}}`,
		"activity":  `{"files": [{"path": "x", "activities": [{"start": 0, "end": 1, "type": "Seek"}]}]}`,
		"sample":    `{"memory": {"trackers": [], "samples": [{"tracker": 3, "tag": 1, "time": 0, "value": 0}]}}`,
	} {
		_, err := LoadSession(strings.NewReader(in))
		if !errors.Is(err, errInvalid) {
			t.Errorf("%s: err = %v, want invalid session", name, err)
		}
	}
	if _, err := LoadSession(strings.NewReader("{")); err == nil {
		t.Errorf("truncated JSON decoded without error")
	}
}
