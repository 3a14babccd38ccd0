package timing

import (
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	for _, tt := range []struct {
		d    float64
		want string
	}{
		{0.0000123, "12.3µs"},
		{0.0166, "16.6ms"},
		{0.01234567, "12.346ms"},
		{2.5, "2.5s"},
		{math.Inf(1), "∞"},
	} {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	for _, tt := range []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{-1536, "-1.5 KiB"},
		{10 << 20, "10 MiB"},
	} {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTooltip(t *testing.T) {
	var tt Tooltip
	tt.SetTitle("Frame 12")
	tt.AddEventTimes(1, 1.5)
	tt.AddCount("Events", 12345)
	if got, _ := tt.Value("Duration"); got != "500ms" {
		t.Errorf("Duration = %q, want 500ms", got)
	}
	if got, _ := tt.Value("Events"); got != "12,345" {
		t.Errorf("Events = %q, want 12,345", got)
	}
	tt.Reset()
	tt.AddEventTimes(1, math.Inf(1))
	if got, _ := tt.Value("End"); got != "ongoing" {
		t.Errorf("End = %q, want ongoing", got)
	}
	if _, ok := tt.Value("Duration"); ok {
		t.Errorf("open-ended event has a duration")
	}
}

func TestMenu(t *testing.T) {
	var m Menu
	checked := false
	m.AddItem(MenuItem{Label: "Toggle", IsChecked: func() bool { return checked }, Execute: func() { checked = !checked }})
	m.BeginSection("More")
	m.AddItems(MenuItem{Label: "A"}, MenuItem{Label: "B"})
	if m.Len() != 3 || len(m.Sections) != 2 {
		t.Fatalf("got %d items in %d sections", m.Len(), len(m.Sections))
	}
	item, ok := m.Find("Toggle")
	if !ok {
		t.Fatal("Find(Toggle) failed")
	}
	item.Execute()
	if !item.Checked() {
		t.Errorf("executing a toggle didn't check it")
	}
	if _, ok := m.Find("C"); ok {
		t.Errorf("Find found a missing item")
	}
}
