package render

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gantt2svg/internal/config"
	"gantt2svg/internal/source"
	"gantt2svg/pkg/plan"
	"gantt2svg/pkg/timeline"
)

func newRenderer() *Renderer {
	return New(config.Default(), zap.NewNop())
}

func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err, "SVG is not well-formed XML")
	}
}

func TestChart_SampleProjectsAllViewModes(t *testing.T) {
	r := newRenderer()
	for _, mode := range timeline.ViewModes() {
		svg, layout, err := r.Chart(source.Sample(), mode)
		require.NoError(t, err)
		wellFormed(t, svg)

		assert.Equal(t, 45, strings.Count(svg, "data-row-id="), mode)
		for _, h := range layout.Headers {
			if estimateTextWidth(h.Label, 11) <= h.Width-4 {
				assert.Contains(t, svg, ">"+h.Label+"<")
			}
		}
	}
}

func TestSVG_EmptyLayoutShowsPlaceholder(t *testing.T) {
	svg, layout, err := newRenderer().Chart(nil, timeline.Month)
	require.NoError(t, err)
	assert.True(t, layout.Empty())
	assert.Contains(t, svg, EmptyMessage)
	assert.NotContains(t, svg, "data-row-id")
	wellFormed(t, svg)
}

func TestSVG_CaptionPolicy(t *testing.T) {
	rows := []plan.Row{
		{ID: "wide", Kind: plan.KindTask, Name: "Wide", Start: plan.MustParseDate("2025-01-01"), End: plan.MustParseDate("2025-01-10"), Progress: 40, Status: plan.StatusInProgress},
		{ID: "narrow", Kind: plan.KindTask, Name: "Narrow", Start: plan.MustParseDate("2025-01-02"), End: plan.MustParseDate("2025-01-03"), Progress: 0, Status: plan.StatusPending},
	}
	layout, err := timeline.Compute(rows, timeline.Week, timeline.Options{})
	require.NoError(t, err)
	svg := newRenderer().SVG(layout)

	// 10 days * 40px = 400px: dates shown
	assert.Contains(t, svg, ">2025-01-01 → 2025-01-10 · 40%<")
	// 2 days * 40px = 80px: progress only
	assert.Contains(t, svg, ">0%<")
	assert.NotContains(t, svg, "2025-01-02 → 2025-01-03")
}

func TestSVG_EscapesUserText(t *testing.T) {
	p := source.Sample()[:1]
	p[0].Name = `R&D <"core">`
	svg, _, err := newRenderer().Chart(p, timeline.Quarter)
	require.NoError(t, err)
	wellFormed(t, svg)
	assert.Contains(t, svg, "R&amp;D &lt;&quot;core&quot;&gt;")
}

func TestSVG_ZeroWidthBarDrawsLabelOnly(t *testing.T) {
	rows := []plan.Row{{ID: "inv", Kind: plan.KindTask, Name: "Inverted", Start: plan.MustParseDate("2025-01-10"), End: plan.MustParseDate("2025-01-05")}}
	layout, err := timeline.Compute(rows, timeline.Day, timeline.Options{})
	require.NoError(t, err)
	svg := newRenderer().SVG(layout)
	assert.Contains(t, svg, "Inverted")
	assert.NotContains(t, svg, `data-row-id="inv"`)
}

func TestBarColor(t *testing.T) {
	c := config.Default().Colors
	assert.Equal(t, c.Project, BarColor(c, plan.Row{Kind: plan.KindProject}))
	assert.Equal(t, c.Stage, BarColor(c, plan.Row{Kind: plan.KindStage}))
	assert.Equal(t, c.TaskCompleted, BarColor(c, plan.Row{Kind: plan.KindTask, Status: plan.StatusCompleted}))
	assert.Equal(t, c.TaskInProgress, BarColor(c, plan.Row{Kind: plan.KindTask, Status: plan.StatusInProgress}))
	assert.Equal(t, c.TaskPending, BarColor(c, plan.Row{Kind: plan.KindTask}))
}

func TestTruncateToWidth(t *testing.T) {
	assert.Equal(t, "short", truncateToWidth("short", 10, 100))

	got := truncateToWidth("    • Análisis de requerimientos del sistema", 10, 120)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, estimateTextWidth(got, 10), 120)

	assert.Equal(t, "", truncateToWidth("abc", 10, 1))
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;", escapeXML(`a & b <c> "d" 'e'`))
	assert.Equal(t, "Planilla v2\tQ1", escapeXML("Plan\x01illa\x1b v2\tQ1\ufffe"))
	assert.Equal(t, "bad \ufffd byte", escapeXML("bad \xff byte"))
}

func TestSVG_DropsCharactersXMLForbids(t *testing.T) {
	projects := source.Sample()
	projects[0].Name = "Planillas\x01\x02 v2"
	projects[0].Stages[0].Tasks[0].Name = "Kick\x00off"

	svg, _, err := newRenderer().Chart(projects, timeline.Month)
	require.NoError(t, err)
	wellFormed(t, svg)
	assert.Contains(t, svg, "Planillas v2")
}
