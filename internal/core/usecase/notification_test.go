package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

type notificationQueueFake struct {
	published []domain.NotificationEvent
	err       error
}

func (f *notificationQueueFake) PublishNotificationEvent(_ context.Context, event domain.NotificationEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

func (f *notificationQueueFake) SubscribeNotificationEvents(context.Context, func(context.Context, domain.NotificationEvent) error) error {
	return nil
}

type tokenStoreFake struct {
	upserts map[int64]domain.NotificationDetails
	deletes []int64
	err     error
}

func (f *tokenStoreFake) UpsertToken(_ context.Context, fid int64, details domain.NotificationDetails) error {
	if f.err != nil {
		return f.err
	}
	if f.upserts == nil {
		f.upserts = map[int64]domain.NotificationDetails{}
	}
	f.upserts[fid] = details
	return nil
}

func (f *tokenStoreFake) DeleteTokens(_ context.Context, fid int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, fid)
	return nil
}

func TestHandleWebhookPublishesPlainEvent(t *testing.T) {
	queue := &notificationQueueFake{}
	uc := NewNotificationWebhookUseCase(queue)

	uc.HandleWebhook(context.Background(), []byte(`{"event":"frame_added","fid":42,"notificationDetails":{"url":"https://api.example/notify","token":"tok"}}`))

	if len(queue.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(queue.published))
	}
	got := queue.published[0]
	if got.FID != 42 || got.NotificationDetails == nil || got.NotificationDetails.Token != "tok" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestHandleWebhookDecodesSignedEnvelope(t *testing.T) {
	queue := &notificationQueueFake{}
	uc := NewNotificationWebhookUseCase(queue)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"fid":7,"type":"app_key","key":"0x00"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"event":"notifications_disabled"}`))
	body := `{"header":"` + header + `","payload":"` + payload + `","signature":"sig"}`

	uc.HandleWebhook(context.Background(), []byte(body))

	if len(queue.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(queue.published))
	}
	if queue.published[0].FID != 7 || queue.published[0].Action() != domain.NotificationActionDelete {
		t.Fatalf("unexpected event %+v", queue.published[0])
	}
}

func TestHandleWebhookSwallowsBadInput(t *testing.T) {
	queue := &notificationQueueFake{}
	uc := NewNotificationWebhookUseCase(queue)

	for _, body := range []string{
		`not json`,
		`{"event":"frame_added","fid":0,"notificationDetails":{"token":"t"}}`,
		`{"event":"frame_added","fid":3}`,
		`{"event":"something_else","fid":3}`,
	} {
		uc.HandleWebhook(context.Background(), []byte(body))
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected nothing published, got %+v", queue.published)
	}
}

func TestHandleWebhookSwallowsPublishFailure(t *testing.T) {
	uc := NewNotificationWebhookUseCase(&notificationQueueFake{err: errors.New("nats down")})
	uc.HandleWebhook(context.Background(), []byte(`{"event":"frame_removed","fid":3}`))
}

func TestApplyNotificationEvent(t *testing.T) {
	store := &tokenStoreFake{}
	uc := NewNotificationTokenUseCase(store)
	ctx := context.Background()

	if err := uc.Apply(ctx, domain.NotificationEvent{
		Event:               "notifications_enabled",
		FID:                 9,
		NotificationDetails: &domain.NotificationDetails{URL: "https://u", Token: "t"},
	}); err != nil {
		t.Fatalf("Apply(enabled) error = %v", err)
	}
	if store.upserts[9].Token != "t" {
		t.Fatalf("token not stored: %+v", store.upserts)
	}

	if err := uc.Apply(ctx, domain.NotificationEvent{Event: "frame_removed", FID: 9}); err != nil {
		t.Fatalf("Apply(removed) error = %v", err)
	}
	if len(store.deletes) != 1 || store.deletes[0] != 9 {
		t.Fatalf("unexpected deletes %v", store.deletes)
	}

	err := uc.Apply(ctx, domain.NotificationEvent{Event: "frame_added", FID: 9})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for added without token, got %v", err)
	}
}

func TestApplyNotificationEventPropagatesStoreError(t *testing.T) {
	uc := NewNotificationTokenUseCase(&tokenStoreFake{err: errors.New("neo4j unavailable")})

	err := uc.Apply(context.Background(), domain.NotificationEvent{Event: "frame_removed", FID: 1})
	if err == nil || domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected store error, got %v", err)
	}
}
