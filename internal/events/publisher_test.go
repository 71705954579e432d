package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	kafkax "github.com/ariefcatur/go-collection-lists/internal/kafka"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	key     string
	value   []byte
	headers []kafka.Header
}

type fakeSender struct {
	topic string
	err   error
	boom  bool
	calls []sent
}

func (f *fakeSender) Topic() string { return f.topic }

func (f *fakeSender) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	if f.boom {
		panic("broker client exploded")
	}
	f.calls = append(f.calls, sent{key: string(key), value: value, headers: headers})
	return f.err
}

func (f *fakeSender) event(t *testing.T, i int) lists.Event {
	t.Helper()
	require.Greater(t, len(f.calls), i)
	var ev lists.Event
	require.NoError(t, json.Unmarshal(f.calls[i].value, &ev))
	return ev
}

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func completedEvent() lists.Event {
	shop, by := "shop-1", "emp-secret-42"
	at := now.Add(-time.Minute)
	return lists.Event{
		Type:        lists.EventListCompleted,
		ListID:      "list-1",
		ShopID:      &shop,
		Status:      "COMPLETED",
		CompletedAt: &at,
		CompletedBy: &by,
		Title:       "Morning pick",
		Items:       []lists.Item{{ID: "a", Name: "Apples", QtyRequested: 2, Status: lists.ItemCollected, Version: 2}},
	}
}

func TestPublishStampsEnvelope(t *testing.T) {
	updates := &fakeSender{topic: "list-updates"}
	p := NewQueuePublisher(updates, nil, "collection-lists", clock.NewFake(now), zap.NewNop())

	p.Publish(context.Background(), lists.Event{Type: lists.EventListDeleted, ListID: "list-9"})

	require.Len(t, updates.calls, 1)
	assert.Equal(t, "list-9", updates.calls[0].key)
	ev := updates.event(t, 0)
	assert.NotEmpty(t, ev.EventID)
	assert.True(t, ev.OccurredAt.Equal(now))
	assert.Equal(t, "collection-lists", ev.Producer)
	assert.Equal(t, lists.EventListDeleted, ev.Type)

	m := kafka.Message{Headers: updates.calls[0].headers}
	assert.Equal(t, string(lists.EventListDeleted), kafkax.HeaderValue(m, kafkax.HeaderEventType))
	assert.Equal(t, "1", kafkax.HeaderValue(m, kafkax.HeaderEventVersion))
}

func TestCompletedListAlsoRequestsPayment(t *testing.T) {
	updates := &fakeSender{topic: "list-updates"}
	payments := &fakeSender{topic: "payment-requests"}
	p := NewQueuePublisher(updates, payments, "api", clock.NewFake(now), zap.NewNop())

	p.Publish(context.Background(), completedEvent())

	require.Len(t, updates.calls, 1)
	require.Len(t, payments.calls, 1)

	upd := updates.event(t, 0)
	req := payments.event(t, 0)
	assert.Equal(t, lists.EventListCompleted, upd.Type)
	assert.Equal(t, lists.EventPaymentRequested, req.Type)
	assert.NotEqual(t, upd.EventID, req.EventID)
	assert.Equal(t, "list-1", req.ListID)
	assert.Equal(t, "Morning pick", req.Title)
	require.NotNil(t, req.CompletedBy)
	assert.Equal(t, "emp-secret-42", *req.CompletedBy)
	assert.Len(t, req.Items, 1)
	assert.Empty(t, req.Status)
}

func TestPaymentSentEvenWhenUpdateFails(t *testing.T) {
	updates := &fakeSender{topic: "list-updates", err: errors.New("leader not available")}
	payments := &fakeSender{topic: "payment-requests"}
	p := NewQueuePublisher(updates, payments, "api", clock.NewFake(now), zap.NewNop())

	assert.NotPanics(t, func() { p.Publish(context.Background(), completedEvent()) })
	assert.Len(t, updates.calls, 1)
	assert.Len(t, payments.calls, 1)
}

func TestOnlyCompletionRequestsPayment(t *testing.T) {
	updates := &fakeSender{topic: "list-updates"}
	payments := &fakeSender{topic: "payment-requests"}
	p := NewQueuePublisher(updates, payments, "api", nil, nil)

	p.Publish(context.Background(), lists.Event{Type: lists.EventListCreated, ListID: "l"})
	p.Publish(context.Background(), lists.Event{Type: lists.EventItemUpdated, ListID: "l", ItemID: "i"})

	assert.Len(t, updates.calls, 2)
	assert.Empty(t, payments.calls)
}

func TestUnconfiguredQueueSendsNothing(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	payments := &fakeSender{topic: "payment-requests"}
	p := NewQueuePublisher(nil, payments, "api", clock.NewFake(now), zap.New(core))

	p.Publish(context.Background(), completedEvent())

	assert.Empty(t, payments.calls)
	assert.Equal(t, 1, logs.FilterMessage("queue connection not configured, skipping publish").Len())
}

func TestPublishSwallowsPanics(t *testing.T) {
	updates := &fakeSender{topic: "list-updates", boom: true}
	p := NewQueuePublisher(updates, nil, "api", clock.NewFake(now), zap.NewNop())
	assert.NotPanics(t, func() { p.Publish(context.Background(), completedEvent()) })
}

func TestFailureLogIsRedacted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	updates := &fakeSender{topic: "list-updates", err: errors.New("timeout")}
	p := NewQueuePublisher(updates, nil, "api", clock.NewFake(now), zap.New(core))

	p.Publish(context.Background(), completedEvent())

	entries := logs.FilterMessage("publish event failed").All()
	require.Len(t, entries, 1)
	for _, f := range entries[0].Context {
		assert.NotContains(t, f.String, "emp-secret-42", "field %s", f.Key)
	}
	assert.Contains(t, entries[0].ContextMap()["event"], redacted)
}

func TestRedact(t *testing.T) {
	ev := completedEvent()
	out := Redact(ev)
	assert.NotContains(t, out, "emp-secret-42")
	assert.True(t, strings.Contains(out, `"completedBy":"[redacted]"`))
	assert.Equal(t, "emp-secret-42", *ev.CompletedBy, "the original event is untouched")

	plain := Redact(lists.Event{Type: lists.EventListCreated, ListID: "l"})
	assert.NotContains(t, plain, "completedBy")
}
