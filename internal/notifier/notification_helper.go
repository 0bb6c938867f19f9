package notifier

import (
	"context"
	"time"

	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
)

const notificationTimeout = 30 * time.Second

// NotificationHelper decides whether a run is worth notifying about and sends it.
type NotificationHelper struct {
	discordNotifier *DiscordNotifier
	cfg             config.NotificationConfig
	logger          zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(dn *DiscordNotifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		discordNotifier: dn,
		cfg:             cfg,
		logger:          logger.With().Str("module", "NotificationHelper").Logger(),
	}
}

// ShouldNotify applies the notify-on-success / notify-on-failure switches.
func (nh *NotificationHelper) ShouldNotify(status models.CollectionStatus) bool {
	if nh.discordNotifier == nil || !nh.cfg.Enabled() {
		return false
	}
	switch status {
	case models.CollectionStatusCompleted:
		return nh.cfg.NotifyOnSuccess
	case models.CollectionStatusPartial, models.CollectionStatusFailed:
		return nh.cfg.NotifyOnFailure
	default:
		return false
	}
}

// SendCollectionNotification reports a finished run. Errors are logged, never returned.
func (nh *NotificationHelper) SendCollectionNotification(ctx context.Context, summary models.CollectionSummary, report []byte) {
	if !nh.ShouldNotify(summary.Status) {
		nh.logger.Debug().Str("status", string(summary.Status)).Msg("Notification for this run status is disabled, skipping")
		return
	}

	payload := FormatCollectionMessage(summary, nh.cfg)

	var attachment *Attachment
	if len(report) > 0 {
		attachment = &Attachment{Name: "summary-" + summary.RunID + ".txt", Content: report}
	}

	// The run context may already be cancelled on shutdown
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
	defer cancel()

	if err := nh.discordNotifier.SendNotification(sendCtx, nh.cfg.DiscordWebhookURL, payload, attachment); err != nil {
		nh.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("Failed to send collection notification")
		return
	}
	nh.logger.Info().Str("run_id", summary.RunID).Str("status", string(summary.Status)).Msg("Collection notification sent")
}
