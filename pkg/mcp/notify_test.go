package mcp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcaster_fifo(t *testing.T) {
	r := require.New(t)
	b := NewBroadcaster(10)
	defer b.Close()

	sub := b.Subscribe()
	defer sub.Cancel()

	for i := 0; i < 3; i++ {
		b.Publish("cache/updated", map[string]int{"seq": i})
	}
	for i := 0; i < 3; i++ {
		msg := <-sub.C
		r.Equal("cache/updated", msg.Method)
		r.Contains(string(msg.Params), fmt.Sprintf(`"seq":%d`, i))
	}
}

func TestBroadcaster_slow_subscriber_drops_oldest(t *testing.T) {
	r := require.New(t)
	b := NewBroadcaster(2)
	defer b.Close()

	sub := b.Subscribe()
	defer sub.Cancel()

	for i := 0; i < 5; i++ {
		b.Publish("tick", map[string]int{"seq": i})
	}

	// Publishing never blocked; the queue holds the newest entries.
	first := <-sub.C
	second := <-sub.C
	r.Contains(string(first.Params), `"seq":3`)
	r.Contains(string(second.Params), `"seq":4`)
	select {
	case <-sub.C:
		t.Fatal("queue should be drained")
	default:
	}
}

func TestBroadcaster_cancel(t *testing.T) {
	r := require.New(t)
	b := NewBroadcaster(2)
	defer b.Close()

	sub := b.Subscribe()
	r.Equal(1, b.SubscriberCount())
	sub.Cancel()
	r.Equal(0, b.SubscriberCount())

	_, open := <-sub.C
	r.False(open)

	// Cancelling twice is fine.
	sub.Cancel()
}

func TestBroadcaster_close(t *testing.T) {
	r := require.New(t)
	b := NewBroadcaster(2)
	sub := b.Subscribe()

	r.NoError(b.Close())
	_, open := <-sub.C
	r.False(open)

	// Subscribing after close yields a closed channel.
	late := b.Subscribe()
	_, open = <-late.C
	r.False(open)
}
