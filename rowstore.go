package tables

import (
	"maps"
	"slices"
)

// tableState is the per-store runtime state of one table.
type tableState struct {
	st   *Store
	tbl  *Table
	rows map[Entity]RawRow

	// present only while an entity is frozen
	overrides map[Entity]*override

	subs []*Subscription
}

func newTableState(st *Store, tbl *Table) *tableState {
	return &tableState{
		st:        st,
		tbl:       tbl,
		rows:      make(map[Entity]RawRow),
		overrides: make(map[Entity]*override),
	}
}

// visible returns the row readers see: the frozen display value while an
// override exists, otherwise the stored row.
func (ts *tableState) visible(e Entity) RawRow {
	if ov := ts.overrides[e]; ov != nil {
		return ov.display
	}
	return ts.rows[e]
}

// latest returns the row a merge-style write builds on: the buffered value
// while frozen, otherwise the stored row.
func (ts *tableState) latest(e Entity) RawRow {
	if ov := ts.overrides[e]; ov != nil && ov.hasBuffered {
		return ov.buffered
	}
	return ts.rows[e]
}

func (ts *tableState) entities() []Entity {
	return slices.Sorted(maps.Keys(ts.rows))
}

// put stores raw under e, or captures it if e is frozen.
func (ts *tableState) put(e Entity, raw RawRow) {
	ts.st.WriteCount++
	if ov := ts.overrides[e]; ov != nil {
		ov.buffered, ov.hasBuffered = raw, true
		ts.st.logOp("SET.BUFFERED", ts.tbl, e, raw)
		return
	}
	old := ts.rows[e]
	ts.rows[e] = raw
	ts.st.logOp("SET", ts.tbl, e, raw)
	ts.st.notify(ts, OpPut, e, raw, old)
}

// delete removes e, cancelling any freeze on it so that a later resume cannot
// bring the row back.
func (ts *tableState) delete(e Entity) {
	old, found := ts.rows[e]
	delete(ts.overrides, e)
	if !found {
		return
	}
	ts.st.WriteCount++
	delete(ts.rows, e)
	ts.st.logOp("REMOVE", ts.tbl, e, nil)
	ts.st.notify(ts, OpDelete, e, nil, old)
}
