package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	skafka "github.com/segmentio/kafka-go"

	"github.com/JulianaCelis/hatsusound-backend/internal/config"
)

type fakeWriter struct {
	msgs []skafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...skafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)
	ev := TransactionEvent{Type: "transaction.approved", Reference: "REF-1", Status: "APPROVED"}
	if err := p.Publish(context.Background(), "REF-1", ev); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(fw.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fw.msgs))
	}
	if string(fw.msgs[0].Key) != "REF-1" {
		t.Fatalf("key = %s", fw.msgs[0].Key)
	}
	var got TransactionEvent
	if err := json.Unmarshal(fw.msgs[0].Value, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "transaction.approved" || got.Status != "APPROVED" {
		t.Fatalf("decoded %+v", got)
	}
}

func TestKafkaPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: boom})
	if err := p.Publish(context.Background(), "k", map[string]string{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestRabbitPublish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewRabbitPublisherWithChannel(ch, "transactions")
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != "transactions" {
		t.Fatalf("declared %v", ch.declared)
	}
	if err := p.Publish(context.Background(), "REF-9", TransactionEvent{Reference: "REF-9"}); err != nil {
		t.Fatal(err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "transactions" {
		t.Fatalf("published %d messages to %v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" || msg.MessageId != "REF-9" {
		t.Fatalf("unexpected publishing %+v", msg)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.EventsConfig{Driver: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(Noop); !ok {
		t.Fatalf("none driver gave %T", p)
	}

	p, err = New(config.EventsConfig{Driver: "kafka", KafkaBrokers: []string{"k1:9092", "k2:9092"}, KafkaTopic: "tx"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*KafkaPublisher); !ok {
		t.Fatalf("kafka driver gave %T", p)
	}
	_ = p.Close()

	if _, err := New(config.EventsConfig{Driver: "kafka"}); err == nil {
		t.Fatal("kafka without brokers accepted")
	}
	if _, err := New(config.EventsConfig{Driver: "nats"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
