package differ

import (
	"sort"

	"github.com/aleister1102/membertrack/internal/models"
)

// Compare reconciles two batches of counts.
//
// Each target present in to gets a delta against from; a target missing from from
// has delta 0. Region totals treat missing members as 0 on both sides, so a region
// delta can include a newly tracked target's full count. Regions are ordered by
// descending current total, keeping configuration order on ties.
func Compare(from, to map[string]int, regions []models.Region) models.Comparison {
	names := make([]string, 0, len(to))
	for name := range to {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]models.TargetDelta, 0, len(names))
	for _, name := range names {
		targets = append(targets, models.TargetDelta{
			Name:  name,
			Count: to[name],
			Delta: TargetDelta(from, to, name),
		})
	}

	return models.Comparison{
		Targets: targets,
		Regions: CompareRegions(from, to, regions),
	}
}

// TargetDelta returns to[name] - from[name], or 0 when name has no earlier count.
func TargetDelta(from, to map[string]int, name string) int {
	current := to[name]
	previous, ok := from[name]
	if !ok {
		previous = current
	}
	return current - previous
}

// CompareRegions aggregates each region across the two batches.
func CompareRegions(from, to map[string]int, regions []models.Region) []models.RegionComparison {
	result := make([]models.RegionComparison, 0, len(regions))
	for _, region := range regions {
		rc := models.RegionComparison{Name: region.Name}
		for _, member := range region.Targets {
			rc.Current += to[member]
			rc.Previous += from[member]
			if count, ok := to[member]; ok {
				rc.Members = append(rc.Members, models.RegionMember{
					Name:  member,
					Count: count,
					Delta: TargetDelta(from, to, member),
				})
			}
		}
		rc.Delta = rc.Current - rc.Previous
		result = append(result, rc)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Current > result[j].Current
	})
	return result
}
