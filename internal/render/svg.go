// Package render draws a timeline layout as an SVG document.
package render

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gantt2svg/internal/config"
	"gantt2svg/internal/metrics"
	"gantt2svg/pkg/plan"
	"gantt2svg/pkg/timeline"
)

// EmptyMessage is shown when there is nothing to lay out.
const EmptyMessage = "No projects to show. Add a project to get started."

// Renderer turns layouts into SVG using the configured appearance.
type Renderer struct {
	cfg    config.Config
	logger *zap.Logger
}

// New creates a Renderer.
func New(cfg config.Config, logger *zap.Logger) *Renderer {
	return &Renderer{cfg: cfg, logger: logger}
}

// Chart flattens projects, lays them out for the view mode and renders
// the result. The layout is returned for callers that need the geometry.
func (r *Renderer) Chart(projects []plan.Project, mode timeline.ViewMode) (string, *timeline.Layout, error) {
	started := time.Now()

	rows := plan.Flatten(projects)
	layout, err := timeline.Compute(rows, mode, timeline.Options{Locale: r.cfg.Chart.Locale})
	if err != nil {
		return "", nil, err
	}
	svg := r.SVG(layout)

	elapsed := time.Since(started)
	metrics.RecordRender(string(mode), len(rows), elapsed)
	r.logger.Debug("Chart rendered",
		zap.String("view", string(mode)),
		zap.Int("rows", len(rows)),
		zap.Int("headers", len(layout.Headers)),
		zap.Int("width", layout.Width()),
		zap.Duration("elapsed", elapsed),
	)
	return svg, layout, nil
}

// geometry holds the pixel frame shared by every drawing step.
type geometry struct {
	width, height int
	gridX, gridY  int // top-left corner of the bar area
	labelX        int
}

func (r *Renderer) frame(l *timeline.Layout) geometry {
	lc := r.cfg.Layout
	g := geometry{
		gridX:  lc.MarginLeft + lc.LabelWidth,
		gridY:  lc.MarginTop + lc.HeaderHeight,
		labelX: lc.MarginLeft + 4,
	}
	g.width = g.gridX + l.Width() + lc.MarginRight
	g.height = g.gridY + l.Height(lc.RowHeight) + lc.MarginBottom
	return g
}

// SVG renders a computed layout. An empty layout renders the placeholder.
func (r *Renderer) SVG(l *timeline.Layout) string {
	if l.Empty() {
		return r.emptySVG()
	}

	g := r.frame(l)
	var svg strings.Builder
	r.writeHeader(&svg, g.width, g.height)

	r.drawHeaders(&svg, l, g)
	for _, b := range l.Bars {
		r.drawRow(&svg, b, g)
	}

	svg.WriteString("</svg>")
	return svg.String()
}

func (r *Renderer) writeHeader(svg *strings.Builder, width, height int) {
	c := r.cfg.Colors
	f := r.cfg.Font
	svg.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<title>%s</title>
<rect width="100%%" height="100%%" fill="%s"/>
<defs>
<style>
.header-text { font-family: %s; font-size: %dpx; fill: %s; }
.label-text { font-family: %s; font-size: %dpx; fill: %s; }
.bar-text { font-family: %s; font-size: %dpx; fill: #ffffff; }
</style>
</defs>
`, width, height, escapeXML(r.cfg.Chart.Title), c.Background,
		f.Family, f.Size-1, c.Text,
		f.Family, f.Size, c.Text,
		f.Family, f.Size-2))
}

func (r *Renderer) emptySVG() string {
	lc := r.cfg.Layout
	width := lc.MarginLeft + lc.LabelWidth + 480 + lc.MarginRight
	height := lc.MarginTop + lc.HeaderHeight + lc.RowHeight + lc.MarginBottom

	var svg strings.Builder
	r.writeHeader(&svg, width, height)
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" class="label-text">%s</text>`,
		width/2, height/2, escapeXML(EmptyMessage)))
	svg.WriteString("</svg>")
	return svg.String()
}

// drawHeaders draws the header band and the vertical separators that run
// down through the bar area at each segment boundary.
func (r *Renderer) drawHeaders(svg *strings.Builder, l *timeline.Layout, g geometry) {
	lc := r.cfg.Layout
	c := r.cfg.Colors
	top := lc.MarginTop
	bottom := g.gridY + l.Height(lc.RowHeight)

	for _, h := range l.Headers {
		x := g.gridX + h.Offset
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s"/>`,
			x, top, h.Width, lc.HeaderHeight, c.HeaderFill, c.Grid))
		svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`,
			x, g.gridY, x, bottom, c.Grid))

		// Labels that would spill over the segment are dropped
		if estimateTextWidth(h.Label, r.cfg.Font.Size-1) <= h.Width-4 {
			svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" class="header-text">%s</text>`,
				x+h.Width/2, top+lc.HeaderHeight/2+r.cfg.Font.Size/3, escapeXML(h.Label)))
		}
	}
	end := g.gridX + l.Width()
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`,
		end, g.gridY, end, bottom, c.Grid))
}

// drawRow draws one row: label, bar, progress overlay and caption.
func (r *Renderer) drawRow(svg *strings.Builder, b timeline.Bar, g geometry) {
	lc := r.cfg.Layout
	slotY := g.gridY + b.Slot*lc.RowHeight
	textY := slotY + lc.RowHeight/2 + r.cfg.Font.Size/3

	label := truncateToWidth(b.Row.Label(), r.cfg.Font.Size, lc.LabelWidth-8)
	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" class="label-text">%s</text>`,
		g.labelX, textY, escapeXML(label)))
	svg.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`,
		lc.MarginLeft, slotY+lc.RowHeight, g.width-lc.MarginRight, slotY+lc.RowHeight, r.cfg.Colors.Grid))

	if b.Width == 0 {
		return
	}

	x := g.gridX + b.Offset
	y := slotY + (lc.RowHeight-lc.BarHeight)/2
	svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s" data-row-id="%s" data-kind="%s"/>`,
		x, y, b.Width, lc.BarHeight, lc.BarRadius, BarColor(r.cfg.Colors, b.Row), escapeXML(b.Row.ID), b.Row.Kind))

	if done := b.Width * clampProgress(b.Row.Progress) / 100; done > 0 {
		svg.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" rx="%d" fill="%s" fill-opacity="0.2"/>`,
			x, y, done, lc.BarHeight, lc.BarRadius, r.cfg.Colors.Progress))
	}

	svg.WriteString(fmt.Sprintf(`<text x="%d" y="%d" text-anchor="middle" class="bar-text">%s</text>`,
		x+b.Width/2, textY, escapeXML(b.Caption())))
}

// BarColor picks a bar colour from the row's kind and, for tasks, its status.
func BarColor(c config.ColorConfig, row plan.Row) string {
	switch row.Kind {
	case plan.KindProject:
		return c.Project
	case plan.KindStage:
		return c.Stage
	}
	switch row.Status {
	case plan.StatusCompleted:
		return c.TaskCompleted
	case plan.StatusInProgress:
		return c.TaskInProgress
	default:
		return c.TaskPending
	}
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}
