// Package analysis is the boundary to the trace analysis backend. It holds the providers that supply events to
// tracks and guards them with a session-wide read/write lock.
package analysis

import (
	"github.com/google/uuid"

	"honnef.co/go/timingview/mysync"
)

// Providers is the set of event providers of a session. Any provider may be nil while the analysis hasn't
// produced it, and consumers must treat that as having no events.
type Providers struct {
	// DurationSeconds is the time covered by the session so far.
	DurationSeconds float64

	Frames       FrameProvider
	LoadTime     LoadTimeProvider
	FileActivity FileActivityProvider
	RenderGraph  RenderGraphProvider
	Memory       MemoryProvider
	Gameplay     GameplayProvider
}

// ExtendDuration grows the session duration to at least t.
func (p *Providers) ExtendDuration(t float64) {
	if t > p.DurationSeconds {
		p.DurationSeconds = t
	}
}

// Session is one analysis session. Readers access providers through a read scope, which may be held by several
// readers at once but never across frames.
type Session struct {
	ID   uuid.UUID
	Name string

	data *mysync.Guarded[*Providers]
}

func NewSession(name string, p *Providers) *Session {
	if p == nil {
		p = &Providers{}
	}
	return &Session{
		ID:   uuid.New(),
		Name: name,
		data: mysync.NewGuarded(p),
	}
}

// Read opens a read scope. Callers must close it before the end of the frame and must not retain providers or
// pointers obtained from them past that point.
func (s *Session) Read() (*Providers, mysync.ReadScope) {
	return s.data.Read()
}

// Write opens the exclusive scope used by analysis to append events.
func (s *Session) Write() (*Providers, mysync.WriteScope) {
	return s.data.Write()
}

func (s *Session) Duration() float64 {
	p, scope := s.Read()
	defer scope.Close()
	return p.DurationSeconds
}

// OpenReadScopes returns the number of read scopes currently held.
func (s *Session) OpenReadScopes() int {
	return s.data.Readers()
}
