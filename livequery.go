package tables

import (
	"maps"
	"slices"
)

type QueryChangeKind int

const (
	QueryEnter QueryChangeKind = iota + 1
	QueryExit
	QueryUpdate
)

func (k QueryChangeKind) String() string {
	switch k {
	case QueryEnter:
		return "enter"
	case QueryExit:
		return "exit"
	case QueryUpdate:
		return "update"
	default:
		return "invalid"
	}
}

// QueryChange is reported by a LiveQuery when its result set changes, or when
// a row already in it is written again.
type QueryChange struct {
	Kind   QueryChangeKind
	Entity Entity
	Update *Update
}

// LiveQuery is a continuously maintained AllWith or AllWithout result.
type LiveQuery struct {
	tbl  *Table
	pred RawRow
	with bool
	set  map[Entity]struct{}
	sub  *Subscription
	fn   func(chg QueryChange)
}

// WatchWith starts from the AllWith result and keeps it current as tbl
// mutates. fn, if non-nil, is called for every change to the set.
func (st *Store) WatchWith(tbl *Table, partial Row, fn func(chg QueryChange)) (*LiveQuery, error) {
	return st.watch(tbl, partial, true, fn)
}

// WatchWithout is the live form of AllWithout.
func (st *Store) WatchWithout(tbl *Table, partial Row, fn func(chg QueryChange)) (*LiveQuery, error) {
	return st.watch(tbl, partial, false, fn)
}

func (st *Store) watch(tbl *Table, partial Row, with bool, fn func(chg QueryChange)) (*LiveQuery, error) {
	initial, err := st.query(tbl, partial, with)
	if err != nil {
		return nil, err
	}
	pred := must(tbl.encodeRow(partial))
	q := &LiveQuery{
		tbl:  tbl,
		pred: pred,
		with: with,
		set:  make(map[Entity]struct{}, len(initial)),
		fn:   fn,
	}
	for _, e := range initial {
		q.set[e] = struct{}{}
	}
	q.sub, err = st.Subscribe(tbl, q.apply)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (q *LiveQuery) apply(u *Update) {
	e := u.Entity()
	in := u.HasNew() && tagged(u.RawNew(), q.pred) && matches(u.RawNew(), q.pred) == q.with
	_, was := q.set[e]
	var kind QueryChangeKind
	switch {
	case in && !was:
		q.set[e] = struct{}{}
		kind = QueryEnter
	case !in && was:
		delete(q.set, e)
		kind = QueryExit
	case in && was:
		kind = QueryUpdate
	default:
		return
	}
	if q.fn != nil {
		q.fn(QueryChange{kind, e, u})
	}
}

// tagged reports whether every field of raw that pred names carries a type
// tag. Rows that fail it are kept out of the set, since AllWith and AllWithout
// reject them.
func tagged(raw, pred RawRow) bool {
	for name := range pred {
		if rf, found := raw[name]; found && rf.Type == FieldTypeNone {
			return false
		}
	}
	return true
}

// Entities returns the current result, sorted.
func (q *LiveQuery) Entities() []Entity {
	return slices.Sorted(maps.Keys(q.set))
}

func (q *LiveQuery) Has(e Entity) bool {
	_, found := q.set[e]
	return found
}

func (q *LiveQuery) Len() int {
	return len(q.set)
}

// Close stops maintaining the result. It is safe to call more than once.
func (q *LiveQuery) Close() {
	q.sub.Unsubscribe()
}
