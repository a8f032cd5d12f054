// Package timeline lays flattened plan rows out on a pixel grid: the visible
// date interval, one bar per row and the header segments for a view mode.
// Everything here is a pure function of its inputs.
package timeline

import (
	"fmt"

	"gantt2svg/pkg/plan"
)

const (
	// PaddingDays is added before the earliest and after the latest date.
	PaddingDays = 2

	// LabelThreshold is the bar width, in pixels, above which the bar
	// caption includes its dates.
	LabelThreshold = 150
)

// Interval is an inclusive range of calendar days.
type Interval struct {
	Start plan.Date `json:"start"`
	End   plan.Date `json:"end"`
}

// Days returns the inclusive length of the interval.
func (i Interval) Days() int {
	return plan.Span(i.Start, i.End)
}

// Bar is the horizontal geometry of one row.
type Bar struct {
	Row    plan.Row `json:"row"`
	Slot   int      `json:"slot"`
	Offset int      `json:"offset"`
	Width  int      `json:"width"`
}

// ShowDates reports whether the bar is wide enough to carry its dates.
func (b Bar) ShowDates() bool {
	return b.Width > LabelThreshold
}

// Caption is the text drawn inside the bar.
func (b Bar) Caption() string {
	if b.ShowDates() {
		return fmt.Sprintf("%s → %s · %d%%", b.Row.Start, b.Row.End, b.Row.Progress)
	}
	return fmt.Sprintf("%d%%", b.Row.Progress)
}

// Layout is the computed chart geometry.
type Layout struct {
	Mode      ViewMode  `json:"mode"`
	Interval  Interval  `json:"interval"`
	UnitWidth int       `json:"unitWidth"`
	TotalDays int       `json:"totalDays"`
	Bars      []Bar     `json:"bars"`
	Headers   []Segment `json:"headers"`
}

// Empty reports the "nothing to render" state.
func (l *Layout) Empty() bool {
	return len(l.Bars) == 0
}

// Width is the pixel width of the whole grid.
func (l *Layout) Width() int {
	return l.TotalDays * l.UnitWidth
}

// Height is the pixel height of the bar area for the given slot height.
func (l *Layout) Height(rowHeight int) int {
	return len(l.Bars) * rowHeight
}

// Options tune the non-geometric parts of a layout.
type Options struct {
	// Locale selects month names for header labels ("en" or "es").
	Locale string
}

// Compute lays rows out for the view mode. An empty row sequence yields
// an empty layout, not an error; only an unknown view mode fails.
func Compute(rows []plan.Row, mode ViewMode, opts Options) (*Layout, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownViewMode, mode)
	}

	l := &Layout{Mode: mode, UnitWidth: mode.UnitWidth()}
	if len(rows) == 0 {
		return l, nil
	}

	l.Interval = visibleInterval(rows)
	l.TotalDays = l.Interval.Days()

	l.Bars = make([]Bar, len(rows))
	for i, r := range rows {
		l.Bars[i] = Bar{
			Row:    r,
			Slot:   i,
			Offset: plan.DaysBetween(l.Interval.Start, r.Start) * l.UnitWidth,
			Width:  plan.Span(r.Start, r.End) * l.UnitWidth,
		}
	}

	l.Headers = headers(l.Interval, mode, l.UnitWidth, opts.Locale)
	return l, nil
}

// visibleInterval spans every row endpoint plus the padding on both sides.
// Endpoints are pooled so an inverted row cannot invert the interval.
func visibleInterval(rows []plan.Row) Interval {
	lo, hi := rows[0].Start, rows[0].Start
	for _, r := range rows {
		for _, d := range []plan.Date{r.Start, r.End} {
			lo = plan.MinDate(lo, d)
			hi = plan.MaxDate(hi, d)
		}
	}
	return Interval{Start: lo.AddDays(-PaddingDays), End: hi.AddDays(PaddingDays)}
}

// Bar returns the bar for a row id.
func (l *Layout) Bar(rowID string) (Bar, bool) {
	for _, b := range l.Bars {
		if b.Row.ID == rowID {
			return b, true
		}
	}
	return Bar{}, false
}

// DateAt returns the day under pixel x, clamped to the visible interval.
func (l *Layout) DateAt(x int) plan.Date {
	if l.Empty() || l.UnitWidth == 0 {
		return plan.Date{}
	}
	day := x / l.UnitWidth
	if x < 0 {
		day = 0
	}
	if day >= l.TotalDays {
		day = l.TotalDays - 1
	}
	return l.Interval.Start.AddDays(day)
}

// DragUpdate converts a bar moved or resized to (offset, width) pixels into
// a row update. Width is snapped to whole days and never below one day.
func (l *Layout) DragUpdate(rowID string, offset, width int) (plan.RowUpdate, error) {
	if _, ok := l.Bar(rowID); !ok {
		return plan.RowUpdate{}, fmt.Errorf("row %s: %w", rowID, plan.ErrNotFound)
	}
	start := l.DateAt(offset)
	days := (width + l.UnitWidth/2) / l.UnitWidth
	if days < 1 {
		days = 1
	}
	end := start.AddDays(days - 1)
	return plan.RowUpdate{RowID: rowID, Start: &start, End: &end}, nil
}
