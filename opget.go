package tables

// Get returns the row of e in tbl, or nil if there is none. While e is frozen
// it returns the value held by the freeze.
func (st *Store) Get(tbl *Table, e Entity) (Row, error) {
	ts, err := st.tableState(tbl)
	if err != nil {
		return nil, err
	}
	st.ReadCount++
	raw := ts.visible(e)
	row, err := tbl.decodeRow(e, raw)
	if st.verbose {
		if raw != nil {
			st.logger.Debug("tables: GET", "table", tbl.name, "entity", e.Short(), "row", loggableRow(tbl, raw))
		} else {
			st.logger.Debug("tables: GET.NOTFOUND", "table", tbl.name, "entity", e.Short())
		}
	}
	return row, err
}

// GetOr is like Get, but returns def when e has no row.
func (st *Store) GetOr(tbl *Table, e Entity, def Row) (Row, error) {
	row, err := st.Get(tbl, e)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return def, nil
	}
	return row, nil
}

// GetRaw returns a copy of the stored form of e's row, as Get would see it.
func (st *Store) GetRaw(tbl *Table, e Entity) (RawRow, bool) {
	ts := st.mustTableState(tbl)
	st.ReadCount++
	raw := ts.visible(e)
	return raw.clone(), raw != nil
}

func (st *Store) Has(tbl *Table, e Entity) bool {
	ts := st.mustTableState(tbl)
	st.ReadCount++
	found := ts.visible(e) != nil
	if st.verbose {
		st.logger.Debug("tables: EXISTS."+map[bool]string{false: "NO", true: "YES"}[found], "table", tbl.name, "entity", e.Short())
	}
	return found
}

// Entities returns the ids of all rows present in tbl, sorted.
func (st *Store) Entities(tbl *Table) []Entity {
	ts := st.mustTableState(tbl)
	st.ReadCount++
	return ts.entities()
}

// Len returns the number of rows in tbl.
func (st *Store) Len(tbl *Table) int {
	return len(st.mustTableState(tbl).rows)
}
