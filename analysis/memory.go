package analysis

import (
	"math"
	"sort"
)

type MemoryTracker struct {
	ID   int
	Name string
}

// MemoryTag is an LLM tag. Parent is NoTag for root tags.
type MemoryTag struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
}

const NoTag int64 = -1

type MemorySample struct {
	Time  float64
	Value int64
}

type MemoryProvider interface {
	Trackers() []MemoryTracker
	Tags() []MemoryTag
	Tag(id int64) (MemoryTag, bool)
	// TagSerial changes whenever trackers or tags are added.
	TagSerial() uint64
	// Serial changes whenever samples are added.
	Serial() uint64
	// EnumerateSamples calls fn for the samples of tag in tracker covering [start, end]. Each sample's value holds
	// until the next sample, which fn receives as duration; the last sample lasts forever. It reports false for
	// unknown trackers or tags.
	EnumerateSamples(tracker int, tag int64, start, end float64, fn func(s MemorySample, duration float64) bool) bool
}

type memKey struct {
	tracker int
	tag     int64
}

type MemoryStore struct {
	trackers []MemoryTracker
	tags     []MemoryTag
	tagIndex map[int64]int
	samples  map[memKey][]MemorySample
	serial   uint64
	// sampleSerial counts added samples.
	sampleSerial uint64
}

var _ MemoryProvider = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tagIndex: map[int64]int{},
		samples:  map[memKey][]MemorySample{},
	}
}

func (s *MemoryStore) AddTracker(name string) int {
	id := len(s.trackers)
	s.trackers = append(s.trackers, MemoryTracker{ID: id, Name: name})
	s.serial++
	return id
}

func (s *MemoryStore) AddTag(tag MemoryTag) {
	if _, ok := s.tagIndex[tag.ID]; ok {
		return
	}
	s.tagIndex[tag.ID] = len(s.tags)
	s.tags = append(s.tags, tag)
	s.serial++
}

// AddSample appends a sample. Samples of one tracker and tag must be added in time order. It reports false for
// unknown trackers or tags.
func (s *MemoryStore) AddSample(tracker int, tag int64, sample MemorySample) bool {
	if tracker < 0 || tracker >= len(s.trackers) {
		return false
	}
	if _, ok := s.tagIndex[tag]; !ok {
		return false
	}
	k := memKey{tracker, tag}
	ss := s.samples[k]
	if len(ss) > 0 && sample.Time < ss[len(ss)-1].Time {
		panic("memory samples must be added in time order")
	}
	s.samples[k] = append(ss, sample)
	s.sampleSerial++
	return true
}

func (s *MemoryStore) Trackers() []MemoryTracker {
	return append([]MemoryTracker(nil), s.trackers...)
}

func (s *MemoryStore) Tags() []MemoryTag {
	return append([]MemoryTag(nil), s.tags...)
}

func (s *MemoryStore) Tag(id int64) (MemoryTag, bool) {
	i, ok := s.tagIndex[id]
	if !ok {
		return MemoryTag{}, false
	}
	return s.tags[i], true
}

func (s *MemoryStore) TagSerial() uint64 { return s.serial }
func (s *MemoryStore) Serial() uint64    { return s.sampleSerial }

func (s *MemoryStore) EnumerateSamples(tracker int, tag int64, start, end float64, fn func(MemorySample, float64) bool) bool {
	if tracker < 0 || tracker >= len(s.trackers) {
		return false
	}
	if _, ok := s.tagIndex[tag]; !ok {
		return false
	}
	ss := s.samples[memKey{tracker, tag}]
	// Start at the sample in effect at start.
	i := sort.Search(len(ss), func(i int) bool { return ss[i].Time > start })
	if i > 0 {
		i--
	}
	for ; i < len(ss) && ss[i].Time <= end; i++ {
		d := math.Inf(1)
		if i+1 < len(ss) {
			d = ss[i+1].Time - ss[i].Time
		}
		if !fn(ss[i], d) {
			break
		}
	}
	return true
}
