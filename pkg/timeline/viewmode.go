package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownViewMode is returned for a zoom token outside ViewModes.
var ErrUnknownViewMode = errors.New("unknown view mode")

// ViewMode is the zoom level of the chart.
type ViewMode string

const (
	Day      ViewMode = "Day"
	Week     ViewMode = "Week"
	Month    ViewMode = "Month"
	Quarter  ViewMode = "Quarter"
	Semester ViewMode = "Semester"
)

// unitWidths is the pixel width of one day per view mode.
var unitWidths = map[ViewMode]int{
	Day:      60,
	Week:     40,
	Month:    30,
	Quarter:  20,
	Semester: 15,
}

// ViewModes returns every view mode from the closest zoom to the widest.
func ViewModes() []ViewMode {
	return []ViewMode{Day, Week, Month, Quarter, Semester}
}

// ParseViewMode resolves a case-insensitive token to a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	for _, m := range ViewModes() {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, s)
}

// UnitWidth returns the pixel width of one day, or 0 for an unknown mode.
func (m ViewMode) UnitWidth() int {
	return unitWidths[m]
}

func (m ViewMode) Valid() bool {
	_, ok := unitWidths[m]
	return ok
}

func (m *ViewMode) UnmarshalText(text []byte) error {
	parsed, err := ParseViewMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
