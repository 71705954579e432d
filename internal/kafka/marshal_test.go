package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHeaders(t *testing.T) {
	m := kafka.Message{Headers: EventHeaders("list-created", 1)}
	assert.Equal(t, "list-created", HeaderValue(m, HeaderEventType))
	assert.Equal(t, "1", HeaderValue(m, HeaderEventVersion))
	assert.Empty(t, HeaderValue(m, "x-missing"))
}

func TestDecode(t *testing.T) {
	type payload struct {
		ListID string `json:"listId"`
	}
	p, err := Decode[payload](kafka.Message{Value: []byte(`{"listId":"abc"}`)})
	require.NoError(t, err)
	assert.Equal(t, "abc", p.ListID)

	_, err = Decode[payload](kafka.Message{Offset: 7, Value: []byte(`nope`)})
	assert.ErrorContains(t, err, "offset 7")
}

func TestNewProducerDefaults(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "list-updates", 0)
	defer p.Close()
	assert.Equal(t, "list-updates", p.Topic())
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
	assert.Equal(t, 1, p.w.MaxAttempts)
}
