package timing

import (
	"image/color"
	"time"

	"honnef.co/go/timingview/analysis"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Settings are the view-wide tunables.
type Settings struct {
	// FilterRebuildBudget is the duration under which a filtered rebuild counts as cheap enough to repeat every
	// frame.
	FilterRebuildBudget time.Duration
	// ScrollDamping is the fraction of an overscroll undone per frame.
	ScrollDamping float64
	// UseDownsampling lets tracks skip events that are too small to be seen individually.
	UseDownsampling bool
	GraphHeight     float32
	Background      color.NRGBA
}

func DefaultSettings() Settings {
	return Settings{
		FilterRebuildBudget: 5 * time.Millisecond,
		ScrollDamping:       0.5,
		GraphHeight:         200,
		Background:          colorBackground,
	}
}

// SessionContext holds the state that lives exactly as long as one analysis session is shown. It is handed to
// everything that needs it instead of living in globals.
type SessionContext struct {
	Logger   zerolog.Logger
	Clock    clockwork.Clock
	Filters  *FilterService
	Settings Settings

	lastTrackID uint64
}

func NewSessionContext(logger zerolog.Logger, clock clockwork.Clock) *SessionContext {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionContext{
		Logger:   logger,
		Clock:    clock,
		Filters:  &FilterService{},
		Settings: DefaultSettings(),
	}
}

// NextTrackID returns a track ID unique within the session.
func (sc *SessionContext) NextTrackID() uint64 {
	sc.lastTrackID++
	return sc.lastTrackID
}

// UpdateContext is passed to tracks once per frame, before drawing.
type UpdateContext struct {
	Viewport *Viewport
	Layout   *Layout
	// Session must not be nil.
	Session *SessionContext
	// Analysis is the session being displayed. It may be nil, in which case tracks have nothing to show.
	Analysis *analysis.Session
	Frame    uint64
}

// Filters returns the session's filter service, or nil.
func (ctx *UpdateContext) Filters() *FilterService {
	if ctx.Session == nil {
		return nil
	}
	return ctx.Session.Filters
}

// Providers acquires a read scope on the analysis session. The caller must close the scope before the frame ends.
// ok is false if there is no session.
func (ctx *UpdateContext) Providers() (p *analysis.Providers, release func(), ok bool) {
	if ctx.Analysis == nil {
		return nil, func() {}, false
	}
	p, scope := ctx.Analysis.Read()
	return p, scope.Close, true
}

// DrawContext is passed to tracks when drawing.
type DrawContext struct {
	Viewport *Viewport
	Layout   *Layout
	Renderer Renderer
	Session  *SessionContext
}
