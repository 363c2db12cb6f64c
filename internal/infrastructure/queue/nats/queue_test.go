package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/builder-search/internal/core/domain"
)

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent([]byte(`{"event":"frame_added","fid":42,"notificationDetails":{"url":"https://u","token":"t"}}`))
	if err != nil {
		t.Fatalf("decodeEvent() error = %v", err)
	}
	if event.FID != 42 || event.Action() != domain.NotificationActionUpsert || event.NotificationDetails.Token != "t" {
		t.Fatalf("unexpected event %+v", event)
	}

	if _, err := decodeEvent([]byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClassifyPublishError(t *testing.T) {
	if class := classifyPublishError(nats.ErrNoServers); !class.Retryable || !class.RecordFailure {
		t.Fatalf("no servers must be retried and recorded: %+v", class)
	}
	if class := classifyPublishError(fmt.Errorf("publish: %w", nats.ErrConnectionReconnecting)); !class.Retryable {
		t.Fatalf("reconnecting must be retried: %+v", class)
	}
	if class := classifyPublishError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must be ignored: %+v", class)
	}
	if class := classifyPublishError(errors.New("bad subject")); class.Retryable || !class.RecordFailure {
		t.Fatalf("unknown errors must be recorded without retry: %+v", class)
	}
}

func TestPublishErrorMarksReconnectStatesTemporary(t *testing.T) {
	if err := publishError(nats.ErrConnectionClosed); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	plain := errors.New("bad subject")
	err := publishError(plain)
	if domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, plain) {
		t.Fatalf("permanent error must keep its cause without the temporary kind: %v", err)
	}
}
