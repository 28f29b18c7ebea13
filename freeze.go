package tables

// override holds a frozen entity's state. display is what reads return;
// buffered is the most recent write attempted since the freeze.
type override struct {
	display     RawRow
	buffered    RawRow
	hasBuffered bool
}

// Freeze holds e's row in tbl steady. Until Resume, reads return the current
// row (or replacement, if non-nil), subscribers receive nothing for e, and
// writes to e are captured instead of applied, the most recent one winning.
// Removal is not captured: removing a frozen row deletes it immediately and
// ends the freeze.
//
// Freezing an entity with no row is a no-op. Freezing an already frozen
// entity keeps its captured write and, if replacement is non-nil, changes the
// displayed value.
func (st *Store) Freeze(tbl *Table, e Entity, replacement Row) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}
	cur, found := ts.rows[e]
	if !found {
		return nil
	}
	var display RawRow
	if replacement != nil {
		display, err = tbl.encodeRow(replacement)
		if err != nil {
			return withEntity(err, e)
		}
	}
	ov := ts.overrides[e]
	if ov == nil {
		ov = &override{display: cur}
		ts.overrides[e] = ov
	}
	if display != nil {
		ov.display = display
	}
	st.logOp("FREEZE", tbl, e, ov.display)
	return nil
}

// Resume ends a freeze. If useBuffered is true and a write was captured, it is
// applied and delivered as a single update whose Old is the pre-freeze row.
// Otherwise the pre-freeze row stands and nothing is delivered. Resuming an
// entity that is not frozen is a no-op.
func (st *Store) Resume(tbl *Table, e Entity, useBuffered bool) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}
	ov := ts.overrides[e]
	if ov == nil {
		return nil
	}
	delete(ts.overrides, e)
	st.logOp("RESUME", tbl, e, nil)
	if useBuffered && ov.hasBuffered {
		ts.put(e, ov.buffered)
	}
	return nil
}

func (st *Store) IsFrozen(tbl *Table, e Entity) bool {
	return st.mustTableState(tbl).overrides[e] != nil
}

// Frozen returns the number of frozen entities in tbl.
func (st *Store) Frozen(tbl *Table) int {
	return len(st.mustTableState(tbl).overrides)
}
