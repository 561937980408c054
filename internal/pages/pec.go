package pages

import (
	"sort"
	"strings"

	"eyedash/domain/aggregate"
	"eyedash/domain/filter"
	"eyedash/domain/resolve"
	"eyedash/domain/table"
)

func pecPage() *Page {
	return &Page{
		Key:      "pec",
		Title:    "Primary Eye Care Program",
		Subtitle: "Coverage, referrals, WGSS indicators, refraction & spectacles.",
		DataFile: "PECdata.xlsx",
		Candidates: resolve.Candidates{
			"date":           {"date"},
			"pec":            {"pec"},
			"cluster":        {"clustercode", "cluster"},
			"sex":            {"sex"},
			"no":             {"no", "n_o", "n/o"},
			"wear_glass":     {"wearglass"},
			"diagnosis_code": {"diagnosiscode"},
			"referred":       {"referred"},
			"clinic":         {"clinic"},
			"vision":         {"vision"},
			"hearing":        {"hearing"},
			"walking":        {"walking"},
			"remember":       {"remember"},
			"selfcare":       {"selfcare"},
			"communication":  {"comcation", "communication"},
			"dry_pmt_dil":    {"drypmtdil"},
			"spec_pres":      {"specpres"},
			"spec_pres_type": {"specprestype"},
			"specbook":       {"specbook"},
			"specprice":      {"specprice"},
			"agewisesexcat":  {"agewisesexcat"},
			"ref_dig":        {"ref_dig"},
			"betterpvacat":   {"betterpvacat"},
			"need":           {"need"},
		},
		Filters: []filter.Spec{
			{Key: "date", Label: "Date", Kind: filter.KindDate},
			{Key: "pec", Label: "Team", Kind: filter.KindMultiselect},
			{Key: "cluster", Label: "Vision Centre", Kind: filter.KindMultiselect},
			{Key: "sex", Label: "Sex", Kind: filter.KindMultiselect},
		},
		Build: buildPEC,
	}
}

func buildPEC(full, f *table.Table, m resolve.Mapping) View {
	view := View{}
	total := f.Len()

	sexCol, sexOK := m.Col("sex")

	// Sex masks shared by all card splits.
	var maleMask, femaleMask []bool
	if sexOK && f.HasColumn(sexCol) {
		sexes := f.Column(sexCol)
		maleMask = make([]bool, len(sexes))
		femaleMask = make([]bool, len(sexes))
		for i, v := range sexes {
			switch canon, ok := aggregate.NormalizeSex(v); {
			case ok && canon == "Male":
				maleMask[i] = true
			case ok && canon == "Female":
				femaleMask[i] = true
			}
		}
	}

	countSplit := func(logical string) (n, male, female int) {
		col, ok := m.Col(logical)
		if !ok || !f.HasColumn(col) {
			return 0, 0, 0
		}
		n = aggregate.YesCount(f, col)
		if maleMask == nil {
			return n, 0, 0
		}
		for i, v := range f.Column(col) {
			if !aggregate.YesLike(v) {
				continue
			}
			if maleMask[i] {
				male++
			}
			if femaleMask[i] {
				female++
			}
		}
		return n, male, female
	}

	totalM, totalF := 0, 0
	for i := range maleMask {
		if maleMask[i] {
			totalM++
		}
		if femaleMask[i] {
			totalF++
		}
	}
	prescribed, presM, presF := countSplit("spec_pres")
	booked, bookM, bookF := countSplit("specbook")
	referredN, refM, refF := countSplit("referred")

	view.Metrics = []MetricCard{
		{Title: "Total Screened", Value: comma(total), Help: mfHelp(totalM, totalF), Icon: "🩺", Color: "#22c55e"},
		{Title: "Spectacles Prescribed", Value: countPct(prescribed, total), Help: mfHelp(presM, presF), Icon: "👓", Color: "#3b82f6"},
		{Title: "Spectacles Dispensed", Value: countPct(booked, total), Help: mfHelp(bookM, bookF), Icon: "📘", Color: "#8b5cf6"},
		{Title: "Referred Patients", Value: countPct(referredN, total), Help: mfHelp(refM, refF), Icon: "➡️", Color: "#14b8a6"},
	}

	demographics := Section{Title: "Demographics Screening"}
	if f.Empty() {
		demographics.Notice = "No data to display with the current filters."
	} else {
		demographics.Charts = []Chart{
			distribution(f, f, m, "sex", "Gender Distribution", ChartPie),
			distribution(f, f, m, "agewisesexcat", "Age & Gender Distribution", ChartPie),
			distribution(f, f, m, "betterpvacat", "Vision Assessment", ChartPie),
			distribution(f, f, m, "need", "Spectacle Need", ChartPie),
			newOldBySex(f, m),
			wearGlassBySex(f, m),
		}
	}
	view.Sections = append(view.Sections, demographics)

	refraction := Section{Title: "Refraction & Spectacles Detail"}
	if f.Empty() {
		refraction.Notice = "No data to display with the current filters."
	} else {
		refraction.Charts = []Chart{
			distribution(f, f, m, "dry_pmt_dil", "Refraction Type", ChartPie),
			distribution(f, f, m, "spec_pres", "Spectacles Prescribed", ChartPie),
			distribution(f, f, m, "spec_pres_type", "Prescribed Spectacles Type", ChartPie),
			distribution(f, f, m, "specprice", "Dispensed Spectacles", ChartPie),
		}
	}
	view.Sections = append(view.Sections, refraction)

	wgss := Section{Title: "Washington Group Short Set (WGSS)"}
	if f.Empty() {
		wgss.Notice = "No data to display with the current filters."
	} else {
		for _, item := range []struct{ logical, title string }{
			{"vision", "Vision"}, {"hearing", "Hearing"}, {"walking", "Walking"},
			{"remember", "Remembering"}, {"selfcare", "Self Care"}, {"communication", "Communication"},
		} {
			wgss.Charts = append(wgss.Charts, distribution(f, f, m, item.logical, item.title, ChartPie))
		}
	}
	view.Sections = append(view.Sections, wgss)

	clinical := Section{Title: "Clinical Examination"}
	if f.Empty() {
		clinical.Notice = "No data to display with the current filters."
	} else {
		clinical.Charts = []Chart{
			distribution(f, f, m, "diagnosis_code", "Screen Patients Diagnosis", ChartBar),
			distribution(f, f, m, "referred", "Referred Patients", ChartPie),
			distribution(f, f, m, "ref_dig", "Referred Patients Diagnosis", ChartBar),
			distribution(f, f, m, "clinic", "Referred Clinic", ChartBar),
		}
	}
	view.Sections = append(view.Sections, clinical)

	tables := Section{Title: "Sex-wise Tables"}
	tables.Tables = []TableWidget{
		sexTable(f, m, "diagnosis_code", "Diagnosis", "Diagnosis (All)", true, false),
		sexTable(f, m, "ref_dig", "Referred Diagnosis", "Referred Diagnosis", false, true),
		sexTable(f, m, "clinic", "Clinic", "Referred Clinic", false, true),
	}
	view.Sections = append(view.Sections, tables)

	return view
}

// newOldBySex renders the New/Old × sex distribution as count labels
// "Category/Sex"; category noise is normalized to New/Old first.
func newOldBySex(f *table.Table, m resolve.Mapping) Chart {
	return pairedBySex(f, m, "no", "New / Old by Gender", aggregate.NormalizeNewOld, []string{"New", "Old"})
}

func wearGlassBySex(f *table.Table, m resolve.Mapping) Chart {
	titleize := func(v table.Value) string {
		return aggregate.TitleCase(strings.ToLower(strings.TrimSpace(v.Text())))
	}
	return pairedBySex(f, m, "wear_glass", "Wear Glass by Gender", titleize, nil)
}

// pairedBySex builds a grouped Category × Sex chart flattened into
// "Category · Sex" rows, the vbar form the UI plots grouped.
func pairedBySex(f *table.Table, m resolve.Mapping, logical, title string, normalize func(table.Value) string, order []string) Chart {
	c := Chart{Title: title, Kind: ChartVBar}
	catCol, ok := m.Col(logical)
	sexCol, sexOK := m.Col("sex")
	if !ok || !sexOK || !f.HasColumn(catCol) || !f.HasColumn(sexCol) {
		c.Notice = title + " not available."
		return c
	}
	cats := f.Column(catCol)
	sexes := f.Column(sexCol)
	counts := make(map[string]int)
	seen := make(map[string]bool)
	for i := range cats {
		canon, ok := aggregate.NormalizeSex(sexes[i])
		if !ok || cats[i].IsMissing() {
			continue
		}
		cat := aggregate.TitleCase(strings.ToLower(strings.TrimSpace(cats[i].Text())))
		if normalize != nil {
			cat = normalize(cats[i])
		}
		if cat == "" {
			continue
		}
		seen[cat] = true
		counts[cat+" · "+canon]++
	}
	if len(counts) == 0 {
		c.Notice = title + " not available."
		return c
	}
	catOrder := order
	if len(catOrder) == 0 {
		for cat := range seen {
			catOrder = append(catOrder, cat)
		}
		sort.Strings(catOrder)
	}
	var cc []aggregate.CategoryCount
	for _, cat := range catOrder {
		for _, sex := range []string{"Male", "Female"} {
			key := cat + " · " + sex
			cc = append(cc, aggregate.CategoryCount{Category: key, Count: counts[key]})
		}
	}
	c.Data = aggregate.MakeCountTable(cc)
	if c.Data.Empty() {
		c.Notice = title + " not available."
	}
	return c
}

// sexTable builds one compact Male/Female cross-tab panel.
func sexTable(f *table.Table, m resolve.Mapping, logical, label, title string, sortDesc, dropBlank bool) TableWidget {
	w := TableWidget{Title: title, Label: label}
	col, ok := m.Col(logical)
	sexCol, sexOK := m.Col("sex")
	if !ok || !sexOK || !f.HasColumn(col) || !f.HasColumn(sexCol) {
		w.Notice = "No " + label + " data found."
		return w
	}
	ct := aggregate.CrossTab(f, col, sexCol, label, nil, nil)
	if dropBlank {
		ct.DropBlankRows()
	}
	if sortDesc {
		ct.SortByTotalDesc()
	}
	if ct.Empty() {
		w.Notice = "No " + label + " data found."
		return w
	}
	if _, p, ok := ct.ChiSquare(); ok {
		w.ChiP = p
		w.HasChiP = true
	}
	w.Rows = ct.CompactRows()
	return w
}
