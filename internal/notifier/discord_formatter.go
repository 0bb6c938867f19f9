package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/dustin/go-humanize"
)

func buildMentions(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return ""
	}
	mentions := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", id))
	}
	return strings.Join(mentions, " ")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

func statusTitleAndColor(status models.CollectionStatus) (string, int) {
	switch status {
	case models.CollectionStatusCompleted:
		return ":white_check_mark: Member Count Collection Complete", SuccessEmbedColor
	case models.CollectionStatusPartial:
		return ":warning: Member Count Collection Partially Complete", WarningEmbedColor
	default:
		return ":x: Member Count Collection Failed", ErrorEmbedColor
	}
}

// FormatCollectionMessage builds the webhook payload describing one collection run.
func FormatCollectionMessage(summary models.CollectionSummary, cfg config.NotificationConfig) models.DiscordMessagePayload {
	title, color := statusTitleAndColor(summary.Status)

	total := 0
	for _, c := range summary.Successful {
		total += c
	}

	embed := NewDiscordEmbedBuilder().
		WithTitle(title).
		WithColor(color).
		WithTimestamp(summary.Timestamp).
		WithDescription(fmt.Sprintf("Collected %d of %d targets.", len(summary.Successful), len(summary.Results))).
		AddField("Total Members", humanize.Comma(int64(total)), true).
		AddField("Duration", formatDuration(summary.Duration), true).
		AddField("Counts", formatCounts(summary.Successful), false).
		AddField("Failed Targets", formatFailures(summary.Results), false).
		AddField("Error", summary.Error, false).
		WithFooter("Run " + summary.RunID).
		Build()

	payload := models.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds:   []models.DiscordEmbed{embed},
	}

	if summary.Status != models.CollectionStatusCompleted && len(cfg.MentionRoleIDs) > 0 {
		payload.Content = buildMentions(cfg.MentionRoleIDs)
		payload.AllowedMentions = &models.AllowedMentions{Roles: cfg.MentionRoleIDs}
	}
	return payload
}

func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, humanize.Comma(int64(counts[name]))))
	}
	return strings.Join(lines, "\n")
}

func formatFailures(results models.FetchResults) string {
	var lines []string
	for _, r := range results {
		if r.OK() {
			continue
		}
		if len(lines) == MaxErrorSampleCount {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", r.Target.Name, r.Reason))
	}
	return strings.Join(lines, "\n")
}
