package reports

import (
	"fmt"
	"sort"
	"time"

	"tasklist/internal/storage"
)

// Generator creates reports from a document snapshot.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate analyzes every category of doc, or only the named one when
// category is not empty.
func (g *Generator) Generate(doc *storage.Document, category string) (*Report, error) {
	report := &Report{
		Categories:  []CategoryReport{},
		GeneratedAt: g.now(),
	}

	cats := doc.Categories
	if category != "" {
		idx := doc.Index(category)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", storage.ErrCategoryNotFound, category)
		}
		cats = cats[idx : idx+1]
	}

	var all []storage.Task
	for _, c := range cats {
		report.Categories = append(report.Categories, Analyze(c))
		all = append(all, c.Tasks...)
	}
	report.Total = Analyze(storage.Category{Name: "All", Tasks: all})
	return report, nil
}

// Analyze computes totals, completion rate and completions per day for one
// category. Tasks completed without a recorded date count toward the totals
// but not toward any day.
func Analyze(c storage.Category) CategoryReport {
	r := CategoryReport{
		Name:  c.Name,
		Total: len(c.Tasks),
		ByDay: []DayCount{},
	}

	perDay := make(map[string]int)
	for _, t := range c.Tasks {
		if !t.Completed {
			continue
		}
		r.Completed++
		if t.CompletedAt != nil {
			perDay[t.CompletedAt.Format("2006-01-02")]++
		}
	}
	r.Pending = r.Total - r.Completed
	if r.Total > 0 {
		r.CompletionRate = float64(r.Completed) / float64(r.Total) * 100
	}

	for date, n := range perDay {
		r.ByDay = append(r.ByDay, DayCount{Date: date, Completed: n})
	}
	sort.Slice(r.ByDay, func(i, j int) bool {
		return r.ByDay[i].Date > r.ByDay[j].Date
	})
	return r
}
