package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
)

// Attachment is an optional file sent along with a webhook message.
type Attachment struct {
	Name    string
	Content []byte
}

// DiscordNotifier sends messages to a Discord webhook.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient *common.HTTPClient
}

// NewDiscordNotifier creates a new DiscordNotifier. A nil client gets a default one.
func NewDiscordNotifier(logger zerolog.Logger, httpClient *common.HTTPClient) (*DiscordNotifier, error) {
	moduleLogger := logger.With().Str("module", "DiscordNotifier").Logger()

	if httpClient == nil {
		client, err := common.NewHTTPClientBuilder(moduleLogger).Build()
		if err != nil {
			return nil, common.WrapError(err, "failed to create webhook HTTP client")
		}
		httpClient = client
	}

	return &DiscordNotifier{
		logger:     moduleLogger,
		httpClient: httpClient,
	}, nil
}

// SendNotification posts payload, plus an optional attachment, to webhookURL.
// An empty webhook URL is a no-op.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload models.DiscordMessagePayload, attachment *Attachment) error {
	if webhookURL == "" {
		dn.logger.Debug().Msg("Webhook URL is empty. Skipping Discord notification.")
		return nil
	}
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return common.WrapError(err, "invalid discord webhook URL")
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return common.WrapError(err, "failed to write payload_json to multipart")
	}

	if attachment != nil && len(attachment.Content) > 0 {
		part, err := writer.CreateFormFile("file[0]", attachment.Name)
		if err != nil {
			return common.WrapError(err, "failed to create form file")
		}
		if _, err := part.Write(attachment.Content); err != nil {
			return common.WrapError(err, "failed to write attachment")
		}
	}

	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to close multipart writer")
	}

	resp, err := dn.httpClient.Do(ctx, &common.HTTPRequest{
		URL:     webhookURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:    body,
	})
	if err != nil {
		dn.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return common.WrapError(err, "failed to send discord notification")
	}

	if !resp.IsSuccess() {
		dn.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(resp.Body)).Msg("Discord notification failed")
		return common.NewHTTPError(resp.StatusCode, truncateString(string(resp.Body), 200))
	}

	dn.logger.Info().Int("status_code", resp.StatusCode).Msg("Discord notification sent successfully")
	return nil
}
