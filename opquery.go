package tables

// AllWith returns, sorted, the entities whose row equals partial in every field
// partial names. An empty partial matches every row.
//
// Queries see stored rows: a frozen entity is matched by the row it had when
// frozen, not by its display value, just as a LiveQuery sees it. A row written
// through SetRaw without a type tag on a field partial names fails the query
// with ErrMissingTypeTag.
func (st *Store) AllWith(tbl *Table, partial Row) ([]Entity, error) {
	return st.query(tbl, partial, true)
}

// AllWithout returns, sorted, the entities whose row differs from partial in at
// least one field partial names. Entities with no row are never included.
func (st *Store) AllWithout(tbl *Table, partial Row) ([]Entity, error) {
	return st.query(tbl, partial, false)
}

func (st *Store) query(tbl *Table, partial Row, with bool) ([]Entity, error) {
	ts, err := st.tableState(tbl)
	if err != nil {
		return nil, err
	}
	pred, err := tbl.encodeRow(partial)
	if err != nil {
		return nil, err
	}
	st.ReadCount++
	var result []Entity
	for _, e := range ts.entities() {
		raw := ts.rows[e]
		for name := range pred {
			if rf, found := raw[name]; found && rf.Type == FieldTypeNone {
				return nil, tableErrf(tbl, e, name, ErrMissingTypeTag, "")
			}
		}
		if matches(raw, pred) == with {
			result = append(result, e)
		}
	}
	if st.verbose {
		st.logger.Debug("tables: QUERY", "table", tbl.name, "with", with, "pred", loggableRow(tbl, pred), "matches", len(result))
	}
	return result, nil
}

// matches reports whether raw equals pred in every field pred names. Values
// are compared in their stored form, tag included.
func matches(raw, pred RawRow) bool {
	for name, want := range pred {
		if got, found := raw[name]; !found || got != want {
			return false
		}
	}
	return true
}
