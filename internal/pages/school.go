package pages

import (
	"fmt"
	"strings"

	"eyedash/domain/aggregate"
	"eyedash/domain/filter"
	"eyedash/domain/resolve"
	"eyedash/domain/table"
)

func schoolPage() *Page {
	return &Page{
		Key:      "school",
		Title:    "School Screening Program",
		Subtitle: "Attendance, myopia distribution, refraction outcomes, referrals.",
		DataFile: "School_Program.xlsx",
		Candidates: resolve.Candidates{
			"date":              {"screendate", "date"},
			"school_type":       {"schooltype"},
			"school_name":       {"schoolcode", "school name", "school"},
			"screen_attend":     {"screenattend", "screenattended"},
			"sex":               {"sex"},
			"age1":              {"age1"},
			"wearspec":          {"wearspec"},
			"cutoff_uva":        {"cutoffuva"},
			"refer_to_optho":    {"refer_to_optho"},
			"refraction_attend": {"refractionattend"},
			"refraction_type":   {"refractiontype"},
			"spec_pres":         {"specpres"},
			"myopia_p":          {"myopiap"},
			"myopia_cat_p":      {"myopiacatp"},
			"ref_eye_spec":      {"ref_eye_spec"},
			"refer_reason":      {"referreason"},
		},
		Filters: []filter.Spec{
			{Key: "date", Label: "Date", Kind: filter.KindDate},
			{Key: "school_type", Label: "School Type", Kind: filter.KindMultiselect},
			{Key: "school_name", Label: "School Name", Kind: filter.KindMultiselect},
			{Key: "sex", Label: "Sex", Kind: filter.KindMultiselect},
		},
		Build: buildSchool,
	}
}

func buildSchool(full, f *table.Table, m resolve.Mapping) View {
	view := View{}

	attCol, attOK := m.Col("screen_attend")
	refCol, refOK := m.Col("ref_eye_spec")

	// Attendance masks over the filtered subset.
	present := table.New(nil)
	nScreened, nPresent, nAbsent, referred := 0, 0, 0, 0
	if attOK && f.HasColumn(attCol) {
		att := f.Column(attCol)
		mask := make([]bool, len(att))
		var refs []table.Value
		if refOK && f.HasColumn(refCol) {
			refs = f.Column(refCol)
		}
		for i, v := range att {
			s := strings.ToLower(strings.TrimSpace(v.Text()))
			if s != "" {
				nScreened++
			}
			switch s {
			case "present":
				mask[i] = true
				nPresent++
				if refs != nil && aggregate.YesLike(refs[i]) {
					referred++
				}
			case "absent":
				nAbsent++
			}
		}
		present = f.Select(mask)
	}

	nSchools := 0
	if schoolCol, ok := m.Col("school_name"); ok {
		nSchools = aggregate.UniqueCount(f, schoolCol)
	}

	view.Metrics = []MetricCard{
		{Title: "Schools Covered", Value: comma(nSchools), Icon: "🏫", Color: "#6366f1"},
		{Title: "Total Children Screened", Value: comma(nScreened), Icon: "🩺", Color: "#22c55e"},
		{Title: "Children Examined", Value: countPct(nPresent, nScreened), Icon: "✅", Color: "#0ea5e9"},
		{Title: "Absent", Value: countPct(nAbsent, nScreened), Icon: "🚫", Color: "#ef4444"},
		{Title: "Referred", Value: countPct(referred, nPresent), Icon: "➡️", Color: "#14b8a6"},
	}
	if ageCol, ok := m.Col("age1"); ok {
		if s := aggregate.NumericSummary(f, ageCol); s.N > 0 {
			view.Metrics = append(view.Metrics, MetricCard{
				Title: "Average Age",
				Value: fmt.Sprintf("%.1f", s.Mean),
				Help:  fmt.Sprintf("Median %.0f | Range %.0f-%.0f", s.Median, s.Min, s.Max),
				Icon:  "🎂",
				Color: "#f59e0b",
			})
		}
	}
	if !attOK {
		view.Metrics = nil
		view.Sections = append(view.Sections, Section{
			Title:  "Key Metrics",
			Notice: "Column \"screen_attend\" not found.",
		})
	}

	demographics := Section{Title: "Demographics Screening"}
	if present.Empty() {
		demographics.Notice = "No data to display with the current filters."
	} else {
		demographics.Charts = []Chart{
			distribution(f, present, m, "sex", "Gender Distribution", ChartPie),
			distribution(f, present, m, "age1", "Age Distribution", ChartPie),
			distribution(f, present, m, "wearspec", "Wearing Glasses or Contact Lens", ChartPie),
			distribution(f, present, m, "cutoff_uva", "Cut-off Vision", ChartPie),
			distribution(f, present, m, "refer_to_optho", "Referral to Optometrist", ChartPie),
		}
	}
	view.Sections = append(view.Sections, demographics)

	clinical := Section{Title: "Clinical Screening"}
	if present.Empty() {
		clinical.Notice = "No data to display with the current filters."
	} else {
		clinical.Charts = []Chart{
			distribution(f, present, m, "refraction_attend", "Refraction Attendance", ChartPie),
			distribution(f, present, m, "refraction_type", "Refraction Type", ChartBar),
			distribution(f, present, m, "spec_pres", "Spectacle Prescription", ChartPie),
		}
	}
	view.Sections = append(view.Sections, clinical)

	myopia := Section{Title: "Myopia & Referred to Eye Specialist"}
	myopia.Charts = []Chart{
		distribution(f, present, m, "myopia_p", "Myopia Presence", ChartPie),
		distribution(f, present, m, "myopia_cat_p", "Myopia Category", ChartPie),
		distribution(f, present, m, "ref_eye_spec", "Referred to Eye Specialist", ChartPie),
	}
	view.Sections = append(view.Sections, myopia)

	reasons := Section{Title: "Referral Reasons"}
	reasons.Charts = []Chart{
		distribution(f, present, m, "refer_reason", "Referral Reasons", ChartBar),
	}
	view.Sections = append(view.Sections, reasons)

	return view
}
