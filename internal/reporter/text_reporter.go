package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/differ"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
)

// ReportInput is everything needed to render a comparison between two batches.
type ReportInput struct {
	From       models.CollectionTime
	To         models.CollectionTime
	Comparison models.Comparison
	Overview   models.Overview
}

// TextReporter renders comparisons as plain text.
type TextReporter struct {
	logger zerolog.Logger
}

// NewTextReporter creates a new TextReporter.
func NewTextReporter(logger zerolog.Logger) *TextReporter {
	return &TextReporter{
		logger: logger.With().Str("component", "TextReporter").Logger(),
	}
}

// FormatDelta renders a signed delta, "(0)" when unchanged.
func FormatDelta(delta int) string {
	if delta == 0 {
		return noChangeMarker
	}
	return fmt.Sprintf("(%+d)", delta)
}

// SummaryLines returns one "name: count (delta)" line per target, sorted by name.
func SummaryLines(targets []models.TargetDelta) []string {
	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		lines = append(lines, fmt.Sprintf("%s: %d %s", t.Name, t.Count, FormatDelta(t.Delta)))
	}
	return lines
}

// Summary renders the copy-pastable per-target summary block.
func Summary(targets []models.TargetDelta) string {
	return strings.Join(SummaryLines(targets), "\n")
}

func signedComma(v int) string {
	if v > 0 {
		return "+" + humanize.Comma(int64(v))
	}
	return humanize.Comma(int64(v))
}

// WriteOverview writes the headline metrics.
func (r *TextReporter) WriteOverview(w io.Writer, o models.Overview) error {
	_, err := fmt.Fprintf(w,
		"Total members: %s %s (%+.1f%%)\nTargets: %d\nAverage per target: %s\nLargest: %s (%s)\n",
		humanize.Comma(int64(o.Total)), signedComma(o.Growth), o.GrowthPercent,
		o.TargetCount,
		humanize.Comma(int64(o.AveragePer)),
		o.Largest, humanize.Comma(int64(o.LargestCount)),
	)
	return common.WrapError(err, "failed to write overview")
}

// WriteRegionTable renders regions and their present members as a table.
func (r *TextReporter) WriteRegionTable(w io.Writer, regions []models.RegionComparison) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Region", "Target", "Members", "Change"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, region := range regions {
		table.Append([]string{region.Name, "", humanize.Comma(int64(region.Current)), signedComma(region.Delta)})
		for _, m := range region.Members {
			table.Append([]string{"", m.Name, humanize.Comma(int64(m.Count)), signedComma(m.Delta)})
		}
	}
	table.Render()
}

// WriteReport writes the full report: header, overview, region table and summary.
func (r *TextReporter) WriteReport(w io.Writer, in ReportInput) error {
	header := fmt.Sprintf("Member counts: %s -> %s\n\n",
		differ.FormatCollectionTime(in.From.Timestamp, in.From.Timestamp.Location()),
		differ.FormatCollectionTime(in.To.Timestamp, in.To.Timestamp.Location()))
	if _, err := io.WriteString(w, header); err != nil {
		return common.WrapError(err, "failed to write report header")
	}

	if err := r.WriteOverview(w, in.Overview); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return common.WrapError(err, "failed to write report")
	}

	r.WriteRegionTable(w, in.Comparison.Regions)

	if _, err := fmt.Fprintf(w, "\n%s\n", Summary(in.Comparison.Targets)); err != nil {
		return common.WrapError(err, "failed to write summary")
	}

	r.logger.Debug().Int("targets", len(in.Comparison.Targets)).Int("regions", len(in.Comparison.Regions)).Msg("Report written")
	return nil
}

// CollectionReport renders the outcome of one collection run, listing successes and failures.
func CollectionReport(summary models.CollectionSummary) string {
	var b strings.Builder
	if len(summary.Successful) > 0 {
		fmt.Fprintf(&b, "Successfully collected data for %d targets:\n", len(summary.Successful))
		for _, r := range summary.Results {
			if r.OK() {
				fmt.Fprintf(&b, "  - %s: %s members\n", r.Target.Name, humanize.Comma(int64(r.Count)))
			}
		}
	}
	if len(summary.Failed) > 0 {
		fmt.Fprintf(&b, "Failed to collect %d targets:\n", len(summary.Failed))
		for _, r := range summary.Results {
			if !r.OK() {
				fmt.Fprintf(&b, "  - %s (%s)\n", r.Target.Name, r.Reason)
			}
		}
	}
	if len(summary.Successful) == 0 {
		b.WriteString("All targets failed!\n")
	}
	return b.String()
}

// WriteGrowth renders batch totals over time with the change from the previous batch.
func (r *TextReporter) WriteGrowth(w io.Writer, totals []models.BatchTotal, loc *time.Location) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Collected", "Total", "Change"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for i, t := range totals {
		change := ""
		if i > 0 {
			change = signedComma(t.Total - totals[i-1].Total)
		}
		table.Append([]string{differ.FormatCollectionTime(t.Timestamp, loc), humanize.Comma(int64(t.Total)), change})
	}
	table.Render()
}
