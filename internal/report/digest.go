// Package report renders the periodic escalation digest: a markdown
// summary of the current table written to the report directory and posted
// to Slack by the scheduler.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"escalboard/internal/analytics"
	"escalboard/internal/domain"
	"escalboard/internal/insights"
	"escalboard/internal/metrics"
)

// Options carries the tunables the digest needs from config.
type Options struct {
	AnomalyWindow    int
	AnomalyThreshold float64
	ForecastWindow   int
	ForecastHorizon  int
}

// BuildDigest renders the digest markdown for a table. Each section is
// computed independently; a section that cannot be computed is reported as
// a note inside the digest instead of failing the whole render.
func BuildDigest(t *domain.Table, quality metrics.Quality, opts Options, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Escalation Digest %s\n\n", now.Format("2006-01-02"))

	if t.Len() == 0 {
		b.WriteString("No escalation records in the current dataset.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**Records:** %d  \n", quality.TotalRecords)
	fmt.Fprintf(&b, "**Data quality:** %.1f%% (%d missing values)\n\n", quality.QualityScore, quality.MissingValues)

	b.WriteString("#### Top case categories\n\n")
	for _, c := range analytics.TopN(analytics.CountBy(t, domain.ColCaseCategory), 5) {
		fmt.Fprintf(&b, "- %s (%d)\n", c.Value, c.Count)
	}
	b.WriteString("\n")

	daily := analytics.DailySeries(t)
	if anomalies := analytics.DetectAnomalies(daily, opts.AnomalyWindow, opts.AnomalyThreshold); len(anomalies) > 0 {
		b.WriteString("#### Unusual days\n\n")
		for _, a := range anomalies {
			fmt.Fprintf(&b, "- %s: %d escalations (rolling mean %.1f)\n", a.Label, a.Count, a.RollingMean)
		}
		b.WriteString("\n")
	}

	monthly := analytics.MonthlySeries(t)
	if points, err := analytics.Forecast(monthly, opts.ForecastWindow, opts.ForecastHorizon); err == nil {
		b.WriteString("#### Forecast\n\n")
		for _, p := range points {
			if p.Forecast {
				fmt.Fprintf(&b, "- %s: %.1f (forecast)\n", p.Label, p.Value)
			}
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "_Forecast skipped: %v._\n\n", err)
	}

	if lines, err := insights.Generate(t); err == nil {
		b.WriteString("#### Insights\n\n")
		for _, line := range lines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	if w := analytics.WorkloadBalance(t); w.Sample {
		b.WriteString("\n_Workload metrics omitted: no agent-assignment data in this dataset._\n")
	} else {
		fmt.Fprintf(&b, "\n**Workload spread:** %d agents, CV %.1f%%, imbalance %.1f%%\n", len(w.Agents), w.CV, w.Imbalance)
	}

	return b.String()
}

// WriteDigestFile writes the digest under outputDir with a dated filename
// and returns the path.
func WriteDigestFile(content, outputDir string, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("escalation_digest_%s.md", date.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}
