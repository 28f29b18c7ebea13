package tables

import (
	"runtime/debug"
	"slices"
)

type subscribeOptions struct {
	runOnInit bool
	entity    Entity
}

type SubscribeOption func(o *subscribeOptions)

// RunOnInit makes Subscribe replay every current row (with a nil Old) before
// any live update is delivered.
func RunOnInit() SubscribeOption {
	return func(o *subscribeOptions) {
		o.runOnInit = true
	}
}

// OnlyEntity restricts delivery to updates of a single entity.
func OnlyEntity(e Entity) SubscribeOption {
	return func(o *subscribeOptions) {
		o.entity = e
	}
}

// Subscription is a handle returned by Subscribe.
type Subscription struct {
	ts     *tableState
	fn     func(u *Update)
	entity Entity
	closed bool
}

type pendingDelivery struct {
	update *Update
	subs   []*Subscription
}

// Subscribe calls fn once for every mutation of tbl, synchronously, after the
// mutation is visible to reads. Updates are delivered in mutation order; a
// write made from inside fn is delivered after the current update has
// reached every subscriber.
func (st *Store) Subscribe(tbl *Table, fn func(u *Update), opts ...SubscribeOption) (*Subscription, error) {
	ts, err := st.tableState(tbl)
	if err != nil {
		return nil, err
	}
	var o subscribeOptions
	for _, opt := range opts {
		opt(&o)
	}
	sub := &Subscription{
		ts:     ts,
		fn:     fn,
		entity: o.entity,
	}
	ts.subs = append(ts.subs, sub)

	if o.runOnInit {
		for _, e := range ts.entities() {
			if sub.entity != "" && sub.entity != e {
				continue
			}
			u := makeUpdate(tbl, OpPut, e, ts.visible(e), nil)
			u.replayed = true
			st.pending = append(st.pending, pendingDelivery{u, []*Subscription{sub}})
		}
		st.drain()
	}
	return sub, nil
}

// Unsubscribe stops delivery, including of updates already queued. It is safe
// to call more than once.
func (sub *Subscription) Unsubscribe() {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.ts.subs = slices.DeleteFunc(sub.ts.subs, func(s *Subscription) bool {
		return s == sub
	})
}

func (sub *Subscription) Active() bool {
	return !sub.closed
}

func (st *Store) notify(ts *tableState, op Op, e Entity, newRaw, oldRaw RawRow) {
	if len(ts.subs) == 0 {
		return
	}
	u := makeUpdate(ts.tbl, op, e, newRaw, oldRaw)
	if u.err != nil {
		st.logger.Warn("tables: delivering undecodable row", "table", ts.tbl.name, "entity", e.Short(), "err", u.err)
	}
	st.pending = append(st.pending, pendingDelivery{u, slices.Clone(ts.subs)})
	st.drain()
}

func (st *Store) drain() {
	if st.delivering {
		return
	}
	st.delivering = true
	defer func() {
		st.delivering = false
		st.pending = nil
	}()
	for i := 0; i < len(st.pending); i++ {
		d := st.pending[i]
		st.pending[i] = pendingDelivery{}
		for _, sub := range d.subs {
			if sub.closed || (sub.entity != "" && sub.entity != d.update.entity) {
				continue
			}
			st.deliver(sub, d.update)
		}
	}
}

func (st *Store) deliver(sub *Subscription, u *Update) {
	defer func() {
		if p := recover(); p != nil {
			st.logger.Error("tables: subscriber panicked", "table", u.table.name, "entity", u.entity.Short(), "panic", p, "stack", string(debug.Stack()))
		}
	}()
	sub.fn(u)
}
