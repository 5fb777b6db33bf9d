// Package broadcast is the in-process fan-out used to wake live inbox
// viewers. It is a notification mechanism, not a delivery log: a publish with
// no subscribers is dropped, and clients recover history through the thread
// read path on (re)connect.
package broadcast

import (
	"hash/fnv"
	"sync"
)

const (
	shardCount = 32
	// per-subscriber queue depth; overflow drops the oldest event
	queueSize = 256
)

type Event struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type Subscription struct {
	ch      chan Event
	channel string
	broker  *Broker
	once    sync.Once
}

// C yields events published to the subscription's channel.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close unregisters the subscription and closes its event channel. Safe to
// call more than once and concurrently with publishes.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
	})
}

type shard struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// Broker is a channel-keyed publish/subscribe registry. Channels are hashed
// across shards so subscribe/unsubscribe/publish on unrelated channels never
// contend on one lock.
type Broker struct {
	shards [shardCount]*shard

	mu     sync.Mutex
	closed bool
}

func New() *Broker {
	b := &Broker{}
	for i := range b.shards {
		b.shards[i] = &shard{subs: make(map[string]map[*Subscription]struct{})}
	}
	return b
}

func (b *Broker) shardFor(channel string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(channel))
	return b.shards[h.Sum32()%shardCount]
}

// Subscribe registers a live connection under the given channel key. Several
// simultaneous subscriptions to one channel are expected (multiple staff
// watching the same unit inbox) and each receives every publish.
func (b *Broker) Subscribe(channel string) *Subscription {
	s := &Subscription{
		ch:      make(chan Event, queueSize),
		channel: channel,
		broker:  b,
	}
	sh := b.shardFor(channel)
	sh.mu.Lock()
	set, ok := sh.subs[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		sh.subs[channel] = set
	}
	set[s] = struct{}{}
	sh.mu.Unlock()
	return s
}

// Publish delivers to every current subscriber of channel and reports how
// many received it. Delivery is best-effort, at-most-once: a full subscriber
// queue drops its oldest event rather than blocking the fan-out.
func (b *Broker) Publish(channel, event string, payload interface{}) int {
	ev := Event{Channel: channel, Event: event, Payload: payload}
	sh := b.shardFor(channel)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	n := 0
	for s := range sh.subs[channel] {
		select {
		case s.ch <- ev:
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- ev:
			default:
			}
		}
		n++
	}
	return n
}

// Subscribers reports the current subscriber count for a channel.
func (b *Broker) Subscribers(channel string) int {
	sh := b.shardFor(channel)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.subs[channel])
}

func (b *Broker) remove(s *Subscription) {
	sh := b.shardFor(s.channel)
	sh.mu.Lock()
	if set, ok := sh.subs[s.channel]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(sh.subs, s.channel)
		}
	}
	sh.mu.Unlock()
	// sends happen under the shard lock, so the channel is quiescent here
	close(s.ch)
}

// Close tears down every subscription; used on shutdown.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	for _, sh := range b.shards {
		sh.mu.Lock()
		all := make([]*Subscription, 0)
		for _, set := range sh.subs {
			for s := range set {
				all = append(all, s)
			}
		}
		sh.mu.Unlock()
		for _, s := range all {
			s.Close()
		}
	}
}
