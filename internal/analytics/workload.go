package analytics

import (
	"math"

	"escalboard/internal/domain"
)

// Workload summarizes how evenly escalations are spread across agents.
// Sample is true when no real agent-assignment data existed and the fixed
// illustrative dataset was substituted; consumers must label it as such.
type Workload struct {
	Agents    []DimCount `json:"agents"`
	Mean      float64    `json:"mean"`
	Std       float64    `json:"std"`
	CV        float64    `json:"cv_pct"`        // std/mean × 100
	Imbalance float64    `json:"imbalance_pct"` // (max/min − 1) × 100
	Sample    bool       `json:"sample"`
}

// sampleAgents is the illustrative dataset used when the table carries no
// agent assignments.
var sampleAgents = []DimCount{
	{Value: "Agent A", Count: 14},
	{Value: "Agent B", Count: 9},
	{Value: "Agent C", Count: 11},
	{Value: "Agent D", Count: 6},
}

// WorkloadBalance computes per-agent totals and spread metrics from the
// Escalated To column. Sentinel-only assignment data counts as absent.
func WorkloadBalance(t *domain.Table) Workload {
	agents := CountBy(t, domain.ColEscalatedTo)
	var real []DimCount
	for _, a := range agents {
		if a.Value != domain.Unknown {
			real = append(real, a)
		}
	}

	if len(real) == 0 {
		w := workloadFrom(sampleAgents)
		w.Sample = true
		return w
	}
	return workloadFrom(real)
}

func workloadFrom(agents []DimCount) Workload {
	n := float64(len(agents))
	sum := 0.0
	for _, a := range agents {
		sum += float64(a.Count)
	}
	mean := sum / n

	ss := 0.0
	for _, a := range agents {
		d := float64(a.Count) - mean
		ss += d * d
	}
	std := math.Sqrt(ss / n)

	w := Workload{Agents: agents, Mean: mean, Std: std}
	if mean > 0 {
		w.CV = std / mean * 100
	}

	// Zero-total agents are excluded from the ratio so it stays defined.
	min, max := math.Inf(1), 0.0
	for _, a := range agents {
		if a.Count == 0 {
			continue
		}
		c := float64(a.Count)
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	if !math.IsInf(min, 1) && min > 0 {
		w.Imbalance = (max/min - 1) * 100
	}
	return w
}
