package pages

import (
	"eyedash/domain/aggregate"
	"eyedash/domain/filter"
	"eyedash/domain/resolve"
	"eyedash/domain/table"
)

func cataractPage() *Page {
	return &Page{
		Key:      "cataract",
		Title:    "Cataract Management",
		Subtitle: "Reported cases, surgeries, follow-ups, and post-op vision metrics.",
		DataFile: "CataractData.xlsx",
		Candidates: resolve.Candidates{
			"date":         {"date"},
			"pec":          {"pec"},
			"cluster":      {"clustercode", "cluster"},
			"cataractsx":   {"cataractsx"},
			"followdone":   {"followdone"},
			"bcvaf618":     {"bcvaf618"},
			"sex":          {"sex"},
			"surgery_tech": {"sxtech"},
			"iol":          {"iol"},
			"bilateral":    {"bilateral"},
		},
		Filters: []filter.Spec{
			{Key: "date", Label: "Date", Kind: filter.KindDate},
			{Key: "pec", Label: "Team", Kind: filter.KindMultiselect},
			{Key: "cluster", Label: "Vision Centre", Kind: filter.KindMultiselect},
			{Key: "sex", Label: "Sex", Kind: filter.KindMultiselect},
		},
		Build: buildCataract,
	}
}

// doneMetric is one "X done" card: the count of done rows in col, shown
// against an optional base column as "count (pct%)", with an M/F split
// help line when sex resolves.
func doneMetric(f *table.Table, m resolve.Mapping, logical, baseLogical, title, icon, color string) MetricCard {
	card := MetricCard{Title: title, Icon: icon, Color: color}
	col, ok := m.Col(logical)
	if !ok || !f.HasColumn(col) {
		card.Value = "0"
		return card
	}
	n := aggregate.DoneCount(f, col)
	card.Value = comma(n)
	if baseLogical != "" {
		if baseCol, ok := m.Col(baseLogical); ok && f.HasColumn(baseCol) {
			card.Value = countPct(n, aggregate.DoneCount(f, baseCol))
		}
	}
	if sexCol, ok := m.Col("sex"); ok && f.HasColumn(sexCol) {
		male, female := aggregate.DoneSexSplit(f, col, sexCol)
		if male+female > 0 {
			card.Help = mfHelp(male, female)
		}
	}
	return card
}

func buildCataract(full, f *table.Table, m resolve.Mapping) View {
	view := View{
		Metrics: []MetricCard{
			doneMetric(f, m, "cataractsx", "", "Surgery Done", "🩺", "#22c55e"),
			doneMetric(f, m, "bilateral", "cataractsx", "Bilateral Blind Operated", "🕶️", "#3b82f6"),
			doneMetric(f, m, "followdone", "cataractsx", "Follow-up Done", "🔁", "#8b5cf6"),
			doneMetric(f, m, "bcvaf618", "followdone", "Visual Acuity in Operated Eye ≥ 6/18", "👁️", "#14b8a6"),
		},
	}

	trend := Section{Title: "Monthly Surgery Trend"}
	trend.Charts = []Chart{monthlyTrend(f, m)}
	view.Sections = append(view.Sections, trend)

	dist := Section{Title: "Surgery Technique & IOL Distribution"}
	if f.Empty() {
		dist.Notice = "No data available with current filters."
	} else {
		dist.Charts = []Chart{
			distribution(f, f, m, "surgery_tech", "Surgery Technique Distribution", ChartPie),
			distribution(f, f, m, "iol", "IOL Distribution", ChartPie),
		}
	}
	view.Sections = append(view.Sections, dist)

	tables := Section{Title: "Vision Centre Breakdown"}
	tables.Tables = []TableWidget{
		doneTable(f, m, "cataractsx", "Surgeries Done (M/F)"),
		doneTable(f, m, "followdone", "Follow-up Done (M/F)"),
	}
	view.Sections = append(view.Sections, tables)

	return view
}

// monthlyTrend buckets done surgeries by month of the date column.
func monthlyTrend(f *table.Table, m resolve.Mapping) Chart {
	c := Chart{Title: "Monthly Surgery Trend", Kind: ChartVBar}
	dateCol, dateOK := m.Col("date")
	sxCol, sxOK := m.Col("cataractsx")
	if !dateOK || !sxOK || !f.HasColumn(dateCol) || !f.HasColumn(sxCol) {
		c.Notice = "Surgery trend unavailable (missing date or surgery columns)."
		return c
	}
	months := aggregate.MonthlyCounts(f, dateCol, sxCol)
	if len(months) == 0 {
		c.Notice = "No monthly surgery data."
		return c
	}
	cc := make([]aggregate.CategoryCount, len(months))
	for i, mc := range months {
		cc[i] = aggregate.CategoryCount{Category: mc.Month, Count: mc.Count}
	}
	c.Data = aggregate.MakeCountTable(cc)
	return c
}

// doneTable is the vision-centre × sex cross-tab restricted to rows
// passing the done predicate on col.
func doneTable(f *table.Table, m resolve.Mapping, logical, title string) TableWidget {
	w := TableWidget{Title: title, Label: "Vision Centre"}
	col, ok := m.Col(logical)
	clusterCol, clusterOK := m.Col("cluster")
	sexCol, sexOK := m.Col("sex")
	if !ok || !clusterOK || !sexOK || !f.HasColumn(col) || !f.HasColumn(clusterCol) || !f.HasColumn(sexCol) {
		w.Notice = "No data found."
		return w
	}
	done := f.Column(col)
	ct := aggregate.CrossTab(f, clusterCol, sexCol, "Vision Centre", nil, func(i int) bool {
		return aggregate.Done(done[i])
	})
	if ct.Empty() {
		w.Notice = "No data found."
		return w
	}
	if _, p, ok := ct.ChiSquare(); ok {
		w.ChiP = p
		w.HasChiP = true
	}
	w.Rows = ct.CompactRows()
	return w
}
