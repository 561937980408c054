package ui

import (
	"encoding/json"
	"html/template"
	"log"
	"strconv"
	"time"

	"eyedash/domain/filter"
	"eyedash/internal/pages"
)

// filterControl is one sidebar widget in render-ready form.
type filterControl struct {
	Key      string
	Label    string
	Kind     string
	Options  []filter.Option
	Selected map[string]bool
	Start    string
	End      string
	MinDate  string
	MaxDate  string
}

// chartPanel pairs a chart with the JSON payload its script tag embeds.
type chartPanel struct {
	ID      string
	Title   string
	Kind    string
	Notice  string
	Payload template.JS
	Rows    []rowLabel
}

type rowLabel struct {
	Category string
	Label    string
}

type sectionPanel struct {
	Title  string
	Notice string
	Charts []chartPanel
	Tables []pages.TableWidget
}

// dashboardData assembles the template payload for one dashboard render.
func (a *App) dashboardData(ctx *pageCtx, res filter.Result, view pages.View) map[string]interface{} {
	var controls []filterControl
	for _, spec := range ctx.page.Filters {
		key := spec.StateKey()
		fc := filterControl{
			Key:   key,
			Label: spec.Label,
			Kind:  string(spec.Kind),
		}
		sel := ctx.state[key]
		switch spec.Kind {
		case filter.KindDate:
			if b, ok := res.Bounds[key]; ok {
				fc.MinDate = b.Start.Format("2006-01-02")
				fc.MaxDate = b.End.Format("2006-01-02")
				fc.Start, fc.End = fc.MinDate, fc.MaxDate
			}
			if sel.Dates != nil {
				fc.Start = sel.Dates.Start.Format("2006-01-02")
				fc.End = sel.Dates.End.Format("2006-01-02")
			}
		case filter.KindMultiselect:
			fc.Options = res.Options[key]
			fc.Selected = make(map[string]bool, len(sel.Categories))
			for _, c := range sel.Categories {
				fc.Selected[c] = true
			}
		}
		controls = append(controls, fc)
	}

	sections := make([]sectionPanel, len(view.Sections))
	chartSeq := 0
	for i, s := range view.Sections {
		sp := sectionPanel{Title: s.Title, Notice: s.Notice, Tables: s.Tables}
		for _, c := range s.Charts {
			chartSeq++
			sp.Charts = append(sp.Charts, buildChartPanel(c, chartSeq))
		}
		sections[i] = sp
	}

	lastUpdated := ""
	if mt := a.store.ModTime(ctx.path); !mt.IsZero() {
		lastUpdated = mt.Format(time.RFC1123)
	}

	return map[string]interface{}{
		"Nav":         a.nav(ctx.page.Key),
		"Title":       ctx.page.Title,
		"Subtitle":    ctx.page.Subtitle,
		"PageKey":     ctx.page.Key,
		"Chips":       res.Chips,
		"Filters":     controls,
		"Metrics":     view.Metrics,
		"Sections":    sections,
		"RowCount":    res.Table.Len(),
		"TotalCount":  ctx.full.Len(),
		"LastUpdated": lastUpdated,
	}
}

// buildChartPanel serializes a chart's data for the client-side renderer.
func buildChartPanel(c pages.Chart, seq int) chartPanel {
	p := chartPanel{
		ID:     "chart-" + strconv.Itoa(seq),
		Title:  c.Title,
		Kind:   string(c.Kind),
		Notice: c.Notice,
	}
	if c.Notice != "" {
		return p
	}
	labels := make([]string, len(c.Data.Rows))
	counts := make([]int, len(c.Data.Rows))
	display := make([]string, len(c.Data.Rows))
	for i, r := range c.Data.Rows {
		labels[i] = r.Category
		counts[i] = r.Count
		display[i] = r.Label
		p.Rows = append(p.Rows, rowLabel{Category: r.Category, Label: r.Label})
	}
	raw, err := json.Marshal(map[string]interface{}{
		"kind":    string(c.Kind),
		"labels":  labels,
		"counts":  counts,
		"display": display,
	})
	if err != nil {
		log.Printf("[ui] chart payload marshal failed: %v", err)
		p.Notice = "Chart unavailable."
		return p
	}
	p.Payload = template.JS(raw)
	return p
}
