package tables

// Remove deletes e's row. Removing an absent row is a no-op. Removing a frozen
// row also drops its freeze, so a later Resume does not bring it back.
func (st *Store) Remove(tbl *Table, e Entity) {
	ts := st.mustTableState(tbl)
	ts.delete(e)
}

// Clear removes every row of tbl, notifying subscribers once per row.
func (st *Store) Clear(tbl *Table) {
	ts := st.mustTableState(tbl)
	for _, e := range ts.entities() {
		ts.delete(e)
	}
	clear(ts.overrides)
}
