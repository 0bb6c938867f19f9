package notifier

import (
	"time"

	"github.com/aleister1102/membertrack/internal/models"
)

// DiscordEmbedBuilder helps in constructing models.DiscordEmbed objects.
type DiscordEmbedBuilder struct {
	embed models.DiscordEmbed
}

func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{}
}

func (b *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	b.embed.Title = title
	return b
}

func (b *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	b.embed.Description = description
	return b
}

// WithTimestamp formats timestamp as ISO8601.
func (b *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	b.embed.Timestamp = timestamp.Format(time.RFC3339)
	return b
}

func (b *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	b.embed.Color = color
	return b
}

func (b *DiscordEmbedBuilder) WithFooter(text string) *DiscordEmbedBuilder {
	b.embed.Footer = &models.DiscordEmbedFooter{Text: text}
	return b
}

// AddField appends a field, truncating the value to Discord's limit. Empty values are skipped.
func (b *DiscordEmbedBuilder) AddField(name string, value string, inline bool) *DiscordEmbedBuilder {
	if value == "" {
		return b
	}
	b.embed.Fields = append(b.embed.Fields, models.DiscordEmbedField{
		Name:   name,
		Value:  truncateString(value, MaxFieldValueLength),
		Inline: inline,
	})
	return b
}

func (b *DiscordEmbedBuilder) Build() models.DiscordEmbed {
	return b.embed
}
