package mq

import (
	"context"
	"testing"
	"time"
)

func TestToKafkaMessage_CarriesKeyAndHeaders(t *testing.T) {
	msg := NewMessage([]byte(`{"status":"Accepted"}`))
	msg.ID = "sub-1"
	msg.Expiration = 90 * time.Second
	msg.SetHeader("event_type", "judge.status.final")

	km := toKafkaMessage("judge.status", msg)
	if km.Topic != "judge.status" {
		t.Fatalf("unexpected topic %q", km.Topic)
	}
	if string(km.Key) != "sub-1" {
		t.Fatalf("expected key to be message id, got %q", km.Key)
	}
	headers := map[string]string{}
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event_type"] != "judge.status.final" {
		t.Fatalf("custom header missing: %v", headers)
	}
	if headers[headerID] != "sub-1" {
		t.Fatalf("id header missing: %v", headers)
	}
	if headers[headerExpiration] != "90000" {
		t.Fatalf("expiration header = %q", headers[headerExpiration])
	}
	if _, err := time.Parse(time.RFC3339Nano, headers[headerTimestamp]); err != nil {
		t.Fatalf("timestamp header not RFC3339: %v", err)
	}
}

func TestToKafkaMessage_FillsTimestamp(t *testing.T) {
	msg := &Message{Body: []byte("x")}
	km := toKafkaMessage("t", msg)
	if km.Time.IsZero() || msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be populated")
	}
}

func TestKafkaProducer_Validation(t *testing.T) {
	if _, err := NewKafkaProducer(KafkaConfig{}); err == nil {
		t.Fatal("expected error without brokers")
	}
	p, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"127.0.0.1:1"}})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	if err := p.Publish(ctx, "t", nil); err == nil {
		t.Fatal("expected error for nil message")
	}
	if err := p.Publish(ctx, "", NewMessage(nil)); err == nil {
		t.Fatal("expected error for empty topic")
	}
	if err := p.PublishBatch(ctx, "t", nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}
