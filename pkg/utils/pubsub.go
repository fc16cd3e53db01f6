package utils

import (
	"github.com/sasha-s/go-deadlock"
)

// How many unread values a subscriber may fall behind by before newer
// publishes are dropped for it.
const subscriberBuffer = 16

type Topic[T any] struct {
	subscribers map[chan T]struct{}
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

// Publish never blocks the publisher; a subscriber with a full buffer
// misses the value.
func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- value:
		default:
		}
	}
	t.mutex.Unlock()
}

type Subscriber[T any] struct {
	channel chan T
	topic   *Topic[T]
}

func (t *Topic[T]) Subscribe() *Subscriber[T] {
	channel := make(chan T, subscriberBuffer)
	t.mutex.Lock()
	t.subscribers[channel] = struct{}{}
	t.mutex.Unlock()

	return &Subscriber[T]{channel, t}
}

func (t *Subscriber[T]) Recv() <-chan T {
	return t.channel
}

// Done unsubscribes and closes the channel once buffered values are read.
// Calling it again does nothing.
func (t *Subscriber[T]) Done() {
	topic := t.topic
	topic.mutex.Lock()
	defer topic.mutex.Unlock()

	if _, ok := topic.subscribers[t.channel]; !ok {
		return
	}

	delete(topic.subscribers, t.channel)
	close(t.channel)
}
