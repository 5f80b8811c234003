package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"recognition-pipeline/internal/model"
	"recognition-pipeline/pkg/utils"
)

// Radar metric names, in row order.
const (
	MetricSuccessRate       = "success_rate"
	MetricFormatConsistency = "format_consistency"
	MetricCategoryCount     = "category_count"
	MetricCandidatesFound   = "candidates_found"
	MetricMalformed         = "malformed_pct"
	MetricBias              = "bias_score"
)

// RadarLimits declares the maximum of every radar axis.
type RadarLimits struct {
	CategoryMax  float64
	CandidateMax float64
	MalformedMax float64
	BiasMax      float64
}

// DefaultRadarLimits returns the axis maxima used when none are configured.
func DefaultRadarLimits() RadarLimits {
	return RadarLimits{
		CategoryMax:  25,
		CandidateMax: 50,
		MalformedMax: 100,
		BiasMax:      100,
	}
}

// ComputeScore derives the quality metrics of one run. Missing taxonomy,
// batch or summary data yields zero values.
func ComputeScore(run model.PipelineRun) model.PipelineScore {
	score := model.PipelineScore{Run: run.Name}
	tax := run.Taxonomy

	if tax != nil {
		score.CategoryCount = len(tax.Categories)
		score.SubcategoryCount = tax.SubcategoryCount()
	} else if run.Summary != nil {
		score.CategoryCount = run.Summary.Results.FinalCategories
		score.SubcategoryCount = run.Summary.Results.TotalSubcategories
	}
	if run.Summary != nil {
		score.ElapsedSeconds = run.Summary.Pipeline.TotalTimeSeconds
		score.CandidatesFound = run.Summary.Results.CandidatesFound
	}

	batch := run.Batch
	if batch == nil {
		return score
	}
	if run.Summary == nil {
		score.CandidatesFound = len(batch.CandidateCategories)
	}
	score.SuccessRate = utils.Percent(batch.Metadata.TotalClassified, batch.Metadata.TotalMessages)

	total := len(batch.Classifications)
	if total == 0 {
		return score
	}

	var malformed, validSubs, valid int
	counts := make(map[string]int)
	for _, c := range batch.Classifications {
		id := strings.TrimSpace(c.Category)
		cat, ok := tax.CategoryByID(id)
		if id == "" || (tax != nil && !ok) {
			malformed++
			continue
		}
		if !ok {
			continue
		}
		valid++
		counts[id]++
		if sub := strings.TrimSpace(c.Subcategory); sub != "" && cat.HasSubcategory(sub) {
			validSubs++
		}
	}

	score.MalformedPct = utils.Percent(malformed, total)
	score.FormatConsistency = utils.Percent(validSubs, total)
	score.BiasScore = biasScore(counts, valid, score.CategoryCount)
	return score
}

// biasScore measures how far the most populated category sits above a
// uniform distribution of valid classifications.
func biasScore(counts map[string]int, valid, categories int) float64 {
	if categories == 0 || valid == 0 {
		return 0
	}
	expected := float64(valid) / float64(categories)
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	return utils.Round1(100 * (float64(maxCount)/expected - 1))
}

// runLabels returns a unique column label per run. Repeated names get a
// "#n" suffix; an empty name becomes "run-<index>".
func runLabels(runs []model.PipelineRun) []string {
	labels := make([]string, len(runs))
	seen := make(map[string]int, len(runs))
	for i, r := range runs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s#%d", name, n)
		}
		labels[i] = name
	}
	return labels
}

// categoryNames maps a run's category ids to display names. Categories
// without a name use their id.
func categoryNames(tax *model.Taxonomy) map[string]string {
	names := make(map[string]string)
	if tax == nil {
		return names
	}
	for _, c := range tax.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = c.ID
		}
		names[c.ID] = name
	}
	return names
}

// ComputeCategoryOverlap counts, per display name and run, the
// classifications that landed on a category with that name. Rows are
// ordered by total count descending, then by name.
func ComputeCategoryOverlap(runs []model.PipelineRun) []model.OverlapRow {
	labels := runLabels(runs)
	rows := make(map[string]*model.OverlapRow)
	var order []string
	row := func(name string) *model.OverlapRow {
		r, ok := rows[name]
		if !ok {
			r = &model.OverlapRow{Category: name, Counts: make(map[string]int, len(runs))}
			for _, l := range labels {
				r.Counts[l] = 0
			}
			rows[name] = r
			order = append(order, name)
		}
		return r
	}

	for i, run := range runs {
		names := categoryNames(run.Taxonomy)
		if run.Taxonomy != nil {
			for _, c := range run.Taxonomy.Categories {
				row(names[c.ID])
			}
		}
		if run.Batch == nil {
			continue
		}
		for _, c := range run.Batch.Classifications {
			id := strings.TrimSpace(c.Category)
			if id == "" {
				continue
			}
			name, ok := names[id]
			if !ok {
				if run.Taxonomy != nil {
					continue
				}
				name = id
			}
			r := row(name)
			r.Counts[labels[i]]++
			r.Total++
		}
	}

	out := make([]model.OverlapRow, 0, len(order))
	for _, name := range order {
		out = append(out, *rows[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ComputeTaxonomyDiff matches categories across runs by case-insensitive,
// trimmed display name and lists which runs contain each one. Rows are
// ordered by presence count descending, then by name.
func ComputeTaxonomyDiff(runs []model.PipelineRun) []model.DiffRow {
	labels := runLabels(runs)
	fold := cases.Fold()

	type entry struct {
		display string
		present map[int]struct{}
	}
	entries := make(map[string]*entry)
	var order []string

	for i, run := range runs {
		if run.Taxonomy == nil {
			continue
		}
		for _, c := range run.Taxonomy.Categories {
			display := strings.TrimSpace(c.Name)
			if display == "" {
				display = c.ID
			}
			key := fold.String(display)
			e, ok := entries[key]
			if !ok {
				e = &entry{display: display, present: make(map[int]struct{})}
				entries[key] = e
				order = append(order, key)
			}
			e.present[i] = struct{}{}
		}
	}

	out := make([]model.DiffRow, 0, len(order))
	for _, key := range order {
		e := entries[key]
		row := model.DiffRow{Category: e.display, Present: []string{}, Missing: []string{}}
		for i, l := range labels {
			if _, ok := e.present[i]; ok {
				row.Present = append(row.Present, l)
			} else {
				row.Missing = append(row.Missing, l)
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Present) != len(out[j].Present) {
			return len(out[i].Present) > len(out[j].Present)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

type radarAxis struct {
	metric   string
	max      float64
	inverted bool
	value    func(model.PipelineScore) float64
}

// ComputeRadar builds the six radar rows. Lower-is-better metrics are
// inverted as max(0, limit-raw) so every axis reads higher-is-better.
func ComputeRadar(scores []model.PipelineScore, limits RadarLimits) []model.RadarRow {
	axes := []radarAxis{
		{MetricSuccessRate, 100, false, func(s model.PipelineScore) float64 { return s.SuccessRate }},
		{MetricFormatConsistency, 100, false, func(s model.PipelineScore) float64 { return s.FormatConsistency }},
		{MetricCategoryCount, limits.CategoryMax, false, func(s model.PipelineScore) float64 { return float64(s.CategoryCount) }},
		{MetricCandidatesFound, limits.CandidateMax, false, func(s model.PipelineScore) float64 { return float64(s.CandidatesFound) }},
		{MetricMalformed, limits.MalformedMax, true, func(s model.PipelineScore) float64 { return s.MalformedPct }},
		{MetricBias, limits.BiasMax, true, func(s model.PipelineScore) float64 { return s.BiasScore }},
	}

	rows := make([]model.RadarRow, 0, len(axes))
	for _, a := range axes {
		row := model.RadarRow{Metric: a.metric, Max: a.max, Inverted: a.inverted, Values: make(map[string]float64, len(scores))}
		for _, s := range scores {
			v := a.value(s)
			if a.inverted {
				v = a.max - v
				if v < 0 {
					v = 0
				}
			}
			row.Values[s.Run] = utils.Round1(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// Compare scores every run and assembles the overlap, diff and radar views.
// Zero or one run produces degenerate but well-formed output.
func Compare(runs []model.PipelineRun, limits RadarLimits) model.ComparisonData {
	labels := runLabels(runs)
	data := model.ComparisonData{
		Runs:   labels,
		Scores: make([]model.PipelineScore, 0, len(runs)),
	}
	for i, run := range runs {
		s := ComputeScore(run)
		s.Run = labels[i]
		data.Scores = append(data.Scores, s)
	}
	data.Overlap = ComputeCategoryOverlap(runs)
	data.Diff = ComputeTaxonomyDiff(runs)
	data.Radar = ComputeRadar(data.Scores, limits)
	return data
}
