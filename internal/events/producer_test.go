package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

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

func TestPublishEvent_WritesKeyedJSON(t *testing.T) {
	fw := &fakeWriter{}
	p := NewProducerWithWriter(fw)

	ev := Event{Type: "blog_created", EntityID: "b1", ActorID: "a1", OccurredAt: time.Unix(0, 0).UTC()}
	require.NoError(t, p.PublishEvent(context.Background(), TopicBlogs, "b1", ev))

	require.Len(t, fw.msgs, 1)
	assert.Equal(t, TopicBlogs, fw.msgs[0].Topic)
	assert.Equal(t, "b1", string(fw.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	assert.Equal(t, "blog_created", got.Type)
	assert.Equal(t, "a1", got.ActorID)
}

func TestPublishEvent_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom})

	err := p.PublishEvent(context.Background(), TopicAuthors, "k", Event{Type: "author_created"})
	assert.ErrorIs(t, err, boom)
}

func TestPublishEvent_RejectsUnencodableEvent(t *testing.T) {
	fw := &fakeWriter{}
	err := NewProducerWithWriter(fw).PublishEvent(context.Background(), TopicBlogs, "k", make(chan int))
	require.Error(t, err)
	assert.Empty(t, fw.msgs)
}

func TestClose(t *testing.T) {
	fw := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(fw).Close())
	assert.True(t, fw.closed)
}
