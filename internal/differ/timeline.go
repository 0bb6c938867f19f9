package differ

import (
	"sort"
	"strings"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
)

// RangePreset names a trailing time window over the batch history.
type RangePreset string

const (
	RangeAll      RangePreset = "all"
	RangeTwoWeeks RangePreset = "2w"
	RangeMonth    RangePreset = "month"
	RangeQuarter  RangePreset = "quarter"
	RangeHalfYear RangePreset = "6m"
	RangeYear     RangePreset = "year"
)

var rangeDays = map[RangePreset]int{
	RangeTwoWeeks: 14,
	RangeMonth:    30,
	RangeQuarter:  90,
	RangeHalfYear: 180,
	RangeYear:     365,
}

// ParseRangePreset validates a preset name.
func ParseRangePreset(s string) (RangePreset, error) {
	preset := RangePreset(strings.ToLower(strings.TrimSpace(s)))
	if preset == RangeAll {
		return preset, nil
	}
	if _, ok := rangeDays[preset]; ok {
		return preset, nil
	}
	return "", common.NewValidationError("range", s, "must be one of all, 2w, month, quarter, 6m, year")
}

// FilterTotals keeps the batch totals inside the trailing window ending at now.
func FilterTotals(totals []models.BatchTotal, preset RangePreset, now time.Time) ([]models.BatchTotal, error) {
	if preset == RangeAll {
		return totals, nil
	}
	days, ok := rangeDays[preset]
	if !ok {
		return nil, common.NewValidationError("range", preset, "unknown range preset")
	}
	return FilterBetween(totals, now.AddDate(0, 0, -days), now), nil
}

// FilterBetween keeps totals with from <= timestamp <= to.
func FilterBetween(totals []models.BatchTotal, from, to time.Time) []models.BatchTotal {
	var out []models.BatchTotal
	for _, t := range totals {
		if t.Timestamp.Before(from) || t.Timestamp.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CollectionTimes picks the latest batch of each calendar day in loc, newest first.
func CollectionTimes(timestamps []time.Time, loc *time.Location) []models.CollectionTime {
	if loc == nil {
		loc = time.UTC
	}

	latestPerDay := make(map[string]time.Time)
	for _, ts := range timestamps {
		day := ts.In(loc).Format(time.DateOnly)
		if current, ok := latestPerDay[day]; !ok || ts.After(current) {
			latestPerDay[day] = ts
		}
	}

	times := make([]models.CollectionTime, 0, len(latestPerDay))
	for day, ts := range latestPerDay {
		times = append(times, models.CollectionTime{Label: day, Timestamp: ts})
	}
	sort.Slice(times, func(i, j int) bool {
		return times[i].Timestamp.After(times[j].Timestamp)
	})
	return times
}

// DefaultComparisonPair returns the (from, to) batches compared by default: the two
// newest collection days, or the same batch twice when only one exists.
func DefaultComparisonPair(times []models.CollectionTime) (from, to time.Time, err error) {
	switch len(times) {
	case 0:
		return time.Time{}, time.Time{}, common.WrapError(common.ErrNotFound, "no collections stored")
	case 1:
		return times[0].Timestamp, times[0].Timestamp, nil
	default:
		return times[1].Timestamp, times[0].Timestamp, nil
	}
}

// SelectComparisonPair resolves the (from, to) batches for two collection days given as
// YYYY-MM-DD labels. An empty to means the newest day; an empty from means the day before to.
func SelectComparisonPair(times []models.CollectionTime, fromDay, toDay string) (from, to time.Time, err error) {
	if fromDay == "" && toDay == "" {
		return DefaultComparisonPair(times)
	}
	if len(times) == 0 {
		return time.Time{}, time.Time{}, common.WrapError(common.ErrNotFound, "no collections stored")
	}

	toIdx := 0
	if toDay != "" {
		if toIdx, err = findCollectionDay(times, toDay); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	fromIdx := toIdx
	if fromDay != "" {
		if fromIdx, err = findCollectionDay(times, fromDay); err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else if toIdx+1 < len(times) {
		fromIdx = toIdx + 1
	}

	// times is newest first
	if fromIdx < toIdx {
		return time.Time{}, time.Time{}, common.NewValidationError("from", fromDay, "must not be after "+times[toIdx].Label)
	}
	return times[fromIdx].Timestamp, times[toIdx].Timestamp, nil
}

func findCollectionDay(times []models.CollectionTime, day string) (int, error) {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return 0, common.NewValidationError("date", day, "must be formatted as YYYY-MM-DD")
	}
	for i, ct := range times {
		if ct.Label == day {
			return i, nil
		}
	}
	return 0, common.WrapErrorf(common.ErrNotFound, "no collection on %s", day)
}

// FormatCollectionTime renders a batch time the way selection lists show it.
func FormatCollectionTime(ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return ts.In(loc).Format("Jan 02, 2006 03:04 PM")
}
