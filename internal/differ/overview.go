package differ

import (
	"sort"

	"github.com/aleister1102/membertrack/internal/models"
)

// Summarize computes headline metrics for latest, with growth measured against previous.
// Growth is 0 when there is no previous batch; the percentage is 0 when the previous total is 0.
func Summarize(latest, previous map[string]int) models.Overview {
	overview := models.Overview{
		Total:       sum(latest),
		TargetCount: len(latest),
	}

	if len(previous) > 0 {
		prevTotal := sum(previous)
		overview.Growth = overview.Total - prevTotal
		if prevTotal > 0 {
			overview.GrowthPercent = float64(overview.Growth) / float64(prevTotal) * 100
		}
	}

	if overview.TargetCount > 0 {
		overview.AveragePer = overview.Total / overview.TargetCount
	}

	// ties resolve to the alphabetically first name
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if overview.Largest == "" || latest[name] > overview.LargestCount {
			overview.Largest = name
			overview.LargestCount = latest[name]
		}
	}

	return overview
}

func sum(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
