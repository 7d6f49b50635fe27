package inmemdb

import (
	"context"
	"sync"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// Broker is a synchronous in-process change broker implementing
// core.ChangeSubscriber.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]brokerSub
}

type brokerSub struct {
	filter core.ChangeFilter
	fn     func(core.ChangeEvent)
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]brokerSub)}
}

var _ core.ChangeSubscriber = (*Broker)(nil)

func (b *Broker) SubscribeChanges(ctx context.Context, filter core.ChangeFilter, fn func(core.ChangeEvent)) (core.UnsubscribeFunc, error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = brokerSub{filter: filter, fn: fn}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			unsub()
		}()
	}
	return unsub, nil
}

// Publish delivers evt synchronously to every matching subscriber.
func (b *Broker) Publish(evt core.ChangeEvent) {
	b.mu.Lock()
	fns := make([]func(core.ChangeEvent), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.filter.Matches(evt) {
			fns = append(fns, sub.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}

// SubscriberCount reports the number of live subscriptions. Test helper.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
