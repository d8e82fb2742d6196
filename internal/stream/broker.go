// Package stream fans hub events out to live subscribers such as
// dashboard websocket connections.
package stream

import (
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

// Message is what subscribers receive.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broker delivers each published message to every current subscriber.
// Publishing never blocks: a subscriber whose buffer is full misses the
// message.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Message
	nextID uint64
	buffer int
	closed bool
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broker{subs: map[uint64]chan Message{}, buffer: buffer}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish returns the number of subscribers the message was queued for.
func (b *Broker) Publish(msg Message) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- msg:
			delivered++
		default:
			nuts.L.Warnf("[Stream] Subscriber %d is lagging, dropped %s", id, msg.Type)
		}
	}
	return delivered
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close disconnects all subscribers.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
