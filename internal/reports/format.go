package reports

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatJSON formats a report as JSON.
func FormatJSON(report *Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatMarkdown formats a report as Markdown.
func FormatMarkdown(report *Report) string {
	var b strings.Builder

	b.WriteString("# Category analysis\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n", report.GeneratedAt.Format("2006-01-02 15:04"))

	for _, c := range report.Categories {
		b.WriteString("\n")
		writeCategory(&b, c)
	}

	if len(report.Categories) > 1 {
		b.WriteString("\n## Overall\n\n")
		writeTotals(&b, report.Total)
	}
	return b.String()
}

func writeCategory(b *strings.Builder, c CategoryReport) {
	fmt.Fprintf(b, "## %s\n\n", c.Name)
	writeTotals(b, c)

	b.WriteString("\n### Completed per day\n\n")
	if len(c.ByDay) == 0 {
		b.WriteString("_No completions yet_\n")
		return
	}
	for _, d := range c.ByDay {
		fmt.Fprintf(b, "- %s: %d %s\n", d.Date, d.Completed, plural(d.Completed, "task", "tasks"))
	}
}

func writeTotals(b *strings.Builder, c CategoryReport) {
	fmt.Fprintf(b, "- Total: %d\n", c.Total)
	fmt.Fprintf(b, "- Completed: %d\n", c.Completed)
	fmt.Fprintf(b, "- Pending: %d\n", c.Pending)
	fmt.Fprintf(b, "- Completion rate: %.1f%%\n", c.CompletionRate)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
