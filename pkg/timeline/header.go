package timeline

import (
	"fmt"
	"time"

	"gantt2svg/pkg/plan"
)

// Segment is one labelled header column. Start and End are the days it
// covers inside the visible interval, already clipped.
type Segment struct {
	Start  plan.Date `json:"start"`
	End    plan.Date `json:"end"`
	Offset int       `json:"offset"`
	Width  int       `json:"width"`
	Label  string    `json:"label"`
}

// Days returns the inclusive number of days covered by the segment.
func (s Segment) Days() int {
	return plan.Span(s.Start, s.End)
}

var monthNames = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
}

func monthName(m time.Month, locale string) string {
	names, ok := monthNames[locale]
	if !ok {
		names = monthNames["en"]
	}
	return names[m-1]
}

// headers tiles the interval left to right for the view mode.
func headers(iv Interval, mode ViewMode, unit int, locale string) []Segment {
	var segs []Segment
	switch mode {
	case Day:
		segs = daySegments(iv)
	case Week:
		segs = weekSegments(iv)
	case Month:
		segs = calendarSegments(iv, 1, func(d plan.Date) string {
			return fmt.Sprintf("%s %d", monthName(d.Month(), locale), d.Year())
		})
	case Quarter:
		segs = calendarSegments(iv, 3, func(d plan.Date) string {
			return fmt.Sprintf("Q%d %d", (int(d.Month())-1)/3+1, d.Year())
		})
	case Semester:
		segs = calendarSegments(iv, 6, func(d plan.Date) string {
			return fmt.Sprintf("S%d %d", (int(d.Month())-1)/6+1, d.Year())
		})
	}

	offset := 0
	for i := range segs {
		segs[i].Offset = offset
		segs[i].Width = segs[i].Days() * unit
		offset += segs[i].Width
	}
	return segs
}

func daySegments(iv Interval) []Segment {
	segs := make([]Segment, 0, iv.Days())
	for d := iv.Start; !d.After(iv.End); d = d.AddDays(1) {
		segs = append(segs, Segment{Start: d, End: d, Label: d.Format("02/01")})
	}
	return segs
}

// weekSegments cuts 7-day blocks from the interval start. Blocks are not
// aligned to calendar weeks; the last one may be short.
func weekSegments(iv Interval) []Segment {
	var segs []Segment
	for start, n := iv.Start, 1; !start.After(iv.End); start, n = start.AddDays(7), n+1 {
		end := plan.MinDate(start.AddDays(6), iv.End)
		segs = append(segs, Segment{Start: start, End: end, Label: fmt.Sprintf("W%d", n)})
	}
	return segs
}

// calendarSegments groups months into blocks of the given size aligned to
// the calendar year (1 = months, 3 = quarters, 6 = semesters) and clips
// each block to the interval on both ends.
func calendarSegments(iv Interval, months int, label func(blockStart plan.Date) string) []Segment {
	first := iv.Start.FirstOfMonth()
	first = plan.NewDate(first.Year(), time.Month((int(first.Month())-1)/months*months+1), 1)

	var segs []Segment
	for block := first; !block.After(iv.End); block = block.AddMonths(months) {
		blockEnd := block.AddMonths(months).AddDays(-1)
		segs = append(segs, Segment{
			Start: plan.MaxDate(block, iv.Start),
			End:   plan.MinDate(blockEnd, iv.End),
			Label: label(block),
		})
	}
	return segs
}
