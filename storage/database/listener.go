package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
)

// notifyChannel is the Postgres NOTIFY channel the enrollment row trigger
// publishes to (see the migrations).
const notifyChannel = "enrollment_changes"

// Listener implements core.ChangeSubscriber over Postgres LISTEN/NOTIFY.
// A single pq.Listener fans change events out to every matching subscription.
type Listener struct {
	pql    *pq.Listener
	logger core.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
	closed bool
}

type subscription struct {
	filter core.ChangeFilter
	fn     func(core.ChangeEvent)
}

// NewListener connects to the database's notification channel and starts
// dispatching events. Call Close to release the connection.
func NewListener(conf *core.Config, logger core.Logger) (*Listener, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Addr(),
		Path:     conf.Database.Name,
		RawQuery: "sslmode=" + sslMode,
	}

	reportErr := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("database listener event", err)
		}
	}
	pql := pq.NewListener(u.String(), 10*time.Second, time.Minute, reportErr)
	if err := pql.Listen(notifyChannel); err != nil {
		_ = pql.Close()
		return nil, errors.Wrap(err, "listening on "+notifyChannel)
	}

	l := &Listener{
		pql:    pql,
		logger: logger,
		subs:   make(map[int]subscription),
	}
	go l.dispatch()
	return l, nil
}

var _ core.ChangeSubscriber = (*Listener)(nil)

// SubscribeChanges registers fn for events matching filter until the returned
// UnsubscribeFunc is called or ctx is done.
func (l *Listener) SubscribeChanges(ctx context.Context, filter core.ChangeFilter, fn func(core.ChangeEvent)) (core.UnsubscribeFunc, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, errors.New("database listener is closed")
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = subscription{filter: filter, fn: fn}
	l.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
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

func (l *Listener) dispatch() {
	for n := range l.pql.Notify {
		if n == nil {
			// connection re-established; subscribers re-fetch full state on
			// the next event, no replay needed
			continue
		}

		var evt core.ChangeEvent
		if err := json.Unmarshal([]byte(n.Extra), &evt); err != nil {
			l.logger.Warn(fmt.Sprintf("malformed change notification: %s", n.Extra), err)
			continue
		}

		l.mu.Lock()
		fns := make([]func(core.ChangeEvent), 0, len(l.subs))
		for _, sub := range l.subs {
			if sub.filter.Matches(evt) {
				fns = append(fns, sub.fn)
			}
		}
		l.mu.Unlock()

		for _, fn := range fns {
			fn(evt)
		}
	}
}

// Close drops every subscription and releases the connection.
func (l *Listener) Close() error {
	l.mu.Lock()
	l.closed = true
	l.subs = make(map[int]subscription)
	l.mu.Unlock()
	return l.pql.Close()
}
