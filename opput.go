package tables

// Set replaces the whole row of e with row, creating it if absent. Fields of
// the old row that row does not name are dropped.
func (st *Store) Set(tbl *Table, e Entity, row Row) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}
	raw, err := tbl.encodeRow(row)
	if err != nil {
		return withEntity(err, e)
	}
	ts.put(e, raw)
	return nil
}

// Update merges the fields of partial into e's row, creating the row if
// absent. Fields partial does not name are left untouched. While e is frozen,
// the merge applies on top of the most recent buffered write.
func (st *Store) Update(tbl *Table, e Entity, partial Row) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}
	patch, err := tbl.encodeRow(partial)
	if err != nil {
		return withEntity(err, e)
	}
	merged := ts.latest(e).clone()
	if merged == nil {
		merged = make(RawRow, len(patch))
	}
	for name, rf := range patch {
		merged[name] = rf
	}
	ts.put(e, merged)
	return nil
}

// SetRaw stores raw as e's row without encoding. Field names must be declared,
// but type tags are stored as given; a field written without a tag makes later
// reads of the row fail with ErrMissingTypeTag.
func (st *Store) SetRaw(tbl *Table, e Entity, raw RawRow) error {
	ts, err := st.tableState(tbl)
	if err != nil {
		return err
	}
	if err := tbl.checkRawFields(raw); err != nil {
		return withEntity(err, e)
	}
	c := raw.clone()
	if c == nil {
		c = RawRow{}
	}
	ts.put(e, c)
	return nil
}

func withEntity(err error, e Entity) error {
	if te, ok := err.(*TableError); ok && te.Entity == "" {
		te.Entity = e
	}
	return err
}
