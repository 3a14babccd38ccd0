package timing

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var local = message.NewPrinter(language.English)

type TooltipRow struct {
	Name  string
	Value string
}

// Tooltip collects the description of an event as a title and name/value rows.
type Tooltip struct {
	Title string
	Rows  []TooltipRow
}

func (tt *Tooltip) Reset() {
	tt.Title = ""
	tt.Rows = tt.Rows[:0]
}

func (tt *Tooltip) SetTitle(title string) { tt.Title = title }

func (tt *Tooltip) Add(name, value string) {
	tt.Rows = append(tt.Rows, TooltipRow{Name: name, Value: value})
}

func (tt *Tooltip) Addf(name, format string, args ...any) {
	tt.Add(name, local.Sprintf(format, args...))
}

func (tt *Tooltip) AddTime(name string, t float64) {
	tt.Add(name, FormatTime(t))
}

func (tt *Tooltip) AddDuration(name string, d float64) {
	tt.Add(name, FormatDuration(d))
}

func (tt *Tooltip) AddBytes(name string, n int64) {
	tt.Add(name, FormatBytes(n))
}

func (tt *Tooltip) AddCount(name string, n int64) {
	tt.Add(name, local.Sprintf("%d", n))
}

// AddEventTimes adds the start, end and duration of [start, end). An infinite end is shown as ongoing.
func (tt *Tooltip) AddEventTimes(start, end float64) {
	tt.AddTime("Start", start)
	if math.IsInf(end, 1) {
		tt.Add("End", "ongoing")
		return
	}
	tt.AddTime("End", end)
	tt.AddDuration("Duration", end-start)
}

// Value returns the value of the first row named name.
func (tt *Tooltip) Value(name string) (string, bool) {
	for _, row := range tt.Rows {
		if row.Name == name {
			return row.Value, true
		}
	}
	return "", false
}

func (tt *Tooltip) String() string {
	var sb strings.Builder
	sb.WriteString(tt.Title)
	for _, row := range tt.Rows {
		sb.WriteByte('\n')
		sb.WriteString(row.Name)
		sb.WriteString(": ")
		sb.WriteString(row.Value)
	}
	return sb.String()
}

// FormatDuration formats a duration in seconds, rounding it to a precision appropriate for its magnitude.
func FormatDuration(d float64) string {
	if math.IsInf(d, 0) || math.IsNaN(d) {
		return "∞"
	}
	dd := time.Duration(math.Round(d * float64(time.Second)))
	switch {
	case dd < time.Millisecond && dd > -time.Millisecond:
	case dd < time.Second && dd > -time.Second:
		dd = dd.Round(time.Microsecond)
	default:
		dd = dd.Round(time.Millisecond)
	}
	return dd.String()
}

// FormatTime formats a point in time as seconds since the start of the session.
func FormatTime(t float64) string {
	return local.Sprintf("%.6fs", t)
}

// FormatBytes formats a byte count with binary prefixes. Negative counts, as produced by memory deltas, keep their
// sign.
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
