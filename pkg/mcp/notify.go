package mcp

import (
	"sync"
)

const defaultSubscriberQueue = 100

// Broadcaster fans server-initiated notifications out to subscribers.
// Each subscriber owns a bounded FIFO queue; when a slow subscriber's
// queue is full the oldest pending notification is dropped so publish
// never blocks dispatch.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
	closed   bool
}

type Subscription struct {
	C chan *Message

	b    *Broadcaster
	once sync.Once
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.b.mu.Lock()
		delete(s.b.subs, s)
		s.b.mu.Unlock()
		close(s.C)
	})
}

func NewBroadcaster(queueSize int) *Broadcaster {
	if queueSize <= 0 {
		queueSize = defaultSubscriberQueue
	}
	return &Broadcaster{
		subs:     make(map[*Subscription]struct{}),
		capacity: queueSize,
	}
}

func (b *Broadcaster) Subscribe() *Subscription {
	s := &Subscription{
		C: make(chan *Message, b.capacity),
		b: b,
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.C)
		return s
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish queues a notification for every subscriber.
func (b *Broadcaster) Publish(method string, params any) {
	msg := NewNotification(method, params)

	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.C <- msg:
		default:
			// Queue full: drop the oldest entry to make room. The
			// subscriber keeps receiving fresh notifications in order.
			select {
			case <-s.C:
			default:
			}
			select {
			case s.C <- msg:
			default:
			}
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close detaches all subscribers and rejects new ones.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[*Subscription]struct{})
	b.mu.Unlock()

	for _, s := range subs {
		s.once.Do(func() { close(s.C) })
	}
	return nil
}
