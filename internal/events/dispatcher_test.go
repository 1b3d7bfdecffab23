package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicDeliveryOrder(t *testing.T) {
	var topic Topic[string]
	var got []string

	topic.Subscribe(func(v string) { got = append(got, "first:"+v) })
	topic.Subscribe(func(v string) { got = append(got, "second:"+v) })

	topic.Publish("x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestTopicUnsubscribe(t *testing.T) {
	var topic Topic[int]
	var got []int

	id := topic.Subscribe(func(v int) { got = append(got, v) })
	topic.Publish(1)
	topic.Unsubscribe(id)
	topic.Publish(2)

	assert.Equal(t, []int{1}, got)
	assert.Equal(t, 0, topic.Len())
}

func TestTopicUnsubscribeUnknownIsNoOp(t *testing.T) {
	var topic Topic[int]
	topic.Subscribe(func(int) {})

	topic.Unsubscribe(42)
	topic.Unsubscribe(-1)

	assert.Equal(t, 1, topic.Len())
}

func TestTopicUnsubscribeRemovesExactListener(t *testing.T) {
	var topic Topic[int]
	var first, second int

	idFirst := topic.Subscribe(func(v int) { first += v })
	topic.Subscribe(func(v int) { second += v })

	topic.Unsubscribe(idFirst)
	topic.Publish(3)

	assert.Equal(t, 0, first)
	assert.Equal(t, 3, second)
}

func TestDispatcherTypedTopics(t *testing.T) {
	d := New()

	var closed []CloseEvent
	d.Close.Subscribe(func(ev CloseEvent) { closed = append(closed, ev) })

	var audio [][]byte
	d.Audio.Subscribe(func(buf []byte) { audio = append(audio, buf) })

	d.Close.Publish(CloseEvent{Code: 1000, Reason: "done"})
	d.Audio.Publish([]byte{1, 2, 3})

	assert.Equal(t, []CloseEvent{{Code: 1000, Reason: "done"}}, closed)
	assert.Equal(t, [][]byte{{1, 2, 3}}, audio)
}
