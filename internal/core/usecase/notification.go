package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/builder-search/internal/core/domain"
	"github.com/kirillkom/builder-search/internal/core/ports"
)

// NotificationWebhookUseCase accepts frame webhook payloads and relays the
// decoded event to the worker. Failures are logged and never surfaced, so the
// sender does not retry.
type NotificationWebhookUseCase struct {
	queue ports.NotificationQueue
}

func NewNotificationWebhookUseCase(queue ports.NotificationQueue) *NotificationWebhookUseCase {
	return &NotificationWebhookUseCase{queue: queue}
}

func (uc *NotificationWebhookUseCase) HandleWebhook(ctx context.Context, payload []byte) {
	event, err := decodeNotificationEvent(payload)
	if err != nil {
		slog.Error("notification_webhook_rejected", "error", err, "bytes", len(payload))
		return
	}
	if err := validateNotificationEvent(event); err != nil {
		slog.Warn("notification_webhook_ignored", "event", event.Event, "fid", event.FID, "error", err)
		return
	}
	if event.Action() == domain.NotificationActionIgnore {
		slog.Info("notification_webhook_ignored", "event", event.Event, "fid", event.FID)
		return
	}
	if err := uc.queue.PublishNotificationEvent(ctx, event); err != nil {
		slog.Error("notification_webhook_publish_failed", "event", event.Event, "fid", event.FID, "error", err)
		return
	}
	slog.Info("notification_webhook_accepted", "event", event.Event, "fid", event.FID)
}

// NotificationTokenUseCase applies relayed events to the token store.
type NotificationTokenUseCase struct {
	tokens ports.NotificationTokenStore
}

func NewNotificationTokenUseCase(tokens ports.NotificationTokenStore) *NotificationTokenUseCase {
	return &NotificationTokenUseCase{tokens: tokens}
}

func (uc *NotificationTokenUseCase) Apply(ctx context.Context, event domain.NotificationEvent) error {
	if err := validateNotificationEvent(event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "apply notification event", err)
	}

	switch event.Action() {
	case domain.NotificationActionUpsert:
		if err := uc.tokens.UpsertToken(ctx, event.FID, *event.NotificationDetails); err != nil {
			return fmt.Errorf("upsert notification token fid=%d: %w", event.FID, err)
		}
	case domain.NotificationActionDelete:
		if err := uc.tokens.DeleteTokens(ctx, event.FID); err != nil {
			return fmt.Errorf("delete notification tokens fid=%d: %w", event.FID, err)
		}
	}
	return nil
}

func validateNotificationEvent(event domain.NotificationEvent) error {
	if event.FID <= 0 {
		return fmt.Errorf("fid must be positive")
	}
	if event.Action() != domain.NotificationActionUpsert {
		return nil
	}
	if event.NotificationDetails == nil || strings.TrimSpace(event.NotificationDetails.Token) == "" {
		return fmt.Errorf("%s event without notification token", event.Event)
	}
	return nil
}

// signedEnvelope is the JSON Farcaster Signature form: base64url header and
// payload. The signature is not verified here.
type signedEnvelope struct {
	Header    string `json:"header"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// decodeNotificationEvent accepts either a plain event object or a signed
// envelope whose header carries the fid.
func decodeNotificationEvent(payload []byte) (domain.NotificationEvent, error) {
	var envelope signedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return domain.NotificationEvent{}, fmt.Errorf("decode webhook body: %w", err)
	}

	if envelope.Payload == "" {
		var event domain.NotificationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return domain.NotificationEvent{}, fmt.Errorf("decode webhook event: %w", err)
		}
		return event, nil
	}

	var header struct {
		FID int64 `json:"fid"`
	}
	if err := decodeBase64JSON(envelope.Header, &header); err != nil {
		return domain.NotificationEvent{}, fmt.Errorf("decode envelope header: %w", err)
	}
	var event domain.NotificationEvent
	if err := decodeBase64JSON(envelope.Payload, &event); err != nil {
		return domain.NotificationEvent{}, fmt.Errorf("decode envelope payload: %w", err)
	}
	event.FID = header.FID
	return event, nil
}

func decodeBase64JSON(encoded string, out any) error {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
