package events

import "sync"

const subscriptionBuffer = 16

// Subscription is one live reader of a topic. Events arrive on Events()
// until Unsubscribe closes it.
type Subscription struct {
	topic string
	ch    chan Event
}

// Events returns the receive channel for this subscription.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Topic returns the topic this subscription is bound to.
func (s *Subscription) Topic() string {
	return s.topic
}

// Bus is an in-process broadcast primitive: every subscriber of a topic
// receives every event published to it, with zero-or-more readers per topic.
// Publish never blocks on a slow reader.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a new reader for the topic.
func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan Event, subscriptionBuffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*Subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub
}

// Unsubscribe removes the reader and closes its channel. Idempotent.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	readers, ok := b.subs[sub.topic]
	if !ok {
		return
	}
	if _, ok := readers[sub]; !ok {
		return
	}
	delete(readers, sub)
	if len(readers) == 0 {
		delete(b.subs, sub.topic)
	}
	// Safe to close here: Publish sends only under RLock, which cannot be
	// held concurrently with this Lock.
	close(sub.ch)
}

// Publish fans an event out to all current subscribers of the topic. A full
// subscription buffer drops the event for that reader rather than blocking
// the publisher.
func (b *Bus) Publish(topic string, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// SubscriberCount reports the number of live readers for a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
