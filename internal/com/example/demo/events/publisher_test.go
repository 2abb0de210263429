package events

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublisherValueChanged(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "value-updates", nil)

	require.NoError(t, p.ValueChanged(context.Background(), "foo", "bar"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "foo", string(w.msgs[0].Key))
	assert.Equal(t, "bar", string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisherError(t *testing.T) {
	p := newPublisher(&fakeWriter{err: errors.New("broker down")}, "value-updates", nil)

	err := p.ValueChanged(context.Background(), "foo", "bar")
	assert.ErrorContains(t, err, `publish "foo" to value-updates: broker down`)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9093"}, "value-updates", nil)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "value-updates", w.Topic)
	assert.NotNil(t, w.Addr)
}
